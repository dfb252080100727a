// Package portal implements the Medisys Secure report portal: a server
// rendered dashboard where clinics upload diagnostic reports, staff verify
// them, and administrators manage accounts.
//
// Authentication is delegated to the identity provider's hosted UI. The
// portal never sees credentials; it derives a session from the identity
// token returned by the provider and gates every page on the tri-state role
// (Admin, Staff, ClinicUser) encoded in that token's group claims. All data
// operations are proxied to the remote report API with the session token
// attached.
package portal
