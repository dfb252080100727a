// Package cognito integrates the portal with an Amazon Cognito user pool:
// hosted UI URL construction for the implicit-grant login flow, and an
// optional JWKS-backed identity token validator.
package cognito

import (
	"fmt"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Config holds the user pool settings the portal needs.
type Config struct {
	// Domain is the hosted UI domain, with or without a scheme
	// (e.g. "myapp.auth.ap-southeast-1.amazoncognito.com").
	Domain string

	// ClientID is the app client registered for the portal.
	ClientID string

	// RedirectURI is where the hosted UI sends the token fragment after
	// login. Must be registered as a callback URL on the app client.
	RedirectURI string

	// LogoutURI is where the hosted UI lands after sign-out. Must be
	// registered as a sign-out URL on the app client.
	LogoutURI string

	// Region and UserPoolID locate the pool's JWKS endpoint. Only needed
	// when token verification is enabled.
	Region     string
	UserPoolID string
}

// Validate checks the fields every deployment needs. Region and UserPoolID
// are checked separately by NewTokenValidator since most deployments skip
// verification.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Domain, validation.Required),
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.RedirectURI, validation.Required),
		validation.Field(&c.LogoutURI, validation.Required),
	)
}

// LoginURL is the hosted UI sign-in page for the implicit grant. The UI
// redirects back to RedirectURI with the tokens in the URL fragment.
func (c Config) LoginURL() string {
	query := url.Values{}
	query.Set("client_id", c.ClientID)
	query.Set("response_type", "token")
	query.Set("scope", "email openid profile")
	query.Set("redirect_uri", c.RedirectURI)
	return c.baseURL() + "/login?" + query.Encode()
}

// LogoutURL is the hosted UI sign-out endpoint. Visiting it clears the
// hosted UI session and lands on LogoutURI.
func (c Config) LogoutURL() string {
	query := url.Values{}
	query.Set("client_id", c.ClientID)
	query.Set("logout_uri", c.LogoutURI)
	return c.baseURL() + "/logout?" + query.Encode()
}

func (c Config) baseURL() string {
	domain := strings.TrimSpace(c.Domain)
	domain = strings.TrimSuffix(domain, "/")
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

// issuerURL is the token issuer for this pool.
func (c Config) issuerURL() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}

// jwksURL is the pool's published key set.
func (c Config) jwksURL() string {
	return c.issuerURL() + "/.well-known/jwks.json"
}
