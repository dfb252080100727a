package portal

import (
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// GroupsClaim is the identity token claim carrying group memberships.
const GroupsClaim = "cognito:groups"

// Identity is the user record derived from a decoded identity token. It is
// immutable for the lifetime of a session; a new login produces a new value.
type Identity struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// HasRole reports whether the identity carries the given group tag.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrimaryRole collapses the group set into the single role the portal keys
// its gating on. See PrimaryRole for the precedence rules.
func (i *Identity) PrimaryRole() Role {
	if i == nil {
		return RoleNone
	}
	return PrimaryRole(i.Roles)
}

// DecodeIdentity extracts an Identity from an identity token's payload.
//
// This is a pure decode, not an authentication check: the signature is not
// verified here. Token authenticity is established by the identity provider
// and enforced server-side by the report API on every protected call. Any
// token that is not three dot-separated segments with a base64url JSON
// payload fails.
func DecodeIdentity(token string) (*Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, ErrTokenDecode.Error())
	}

	identity := &Identity{Roles: []string{}}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	identity.Roles = groupsFromClaim(claims[GroupsClaim])

	return identity, nil
}

// groupsFromClaim coerces the groups claim into a string slice. The claim is
// absent for users that belong to no group, and some token shapes carry a
// single group as a bare string.
func groupsFromClaim(raw any) []string {
	switch groups := raw.(type) {
	case nil:
		return []string{}
	case string:
		if groups == "" {
			return []string{}
		}
		return []string{groups}
	case []string:
		return append([]string(nil), groups...)
	case []any:
		out := make([]string, 0, len(groups))
		for _, g := range groups {
			if s, ok := g.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
