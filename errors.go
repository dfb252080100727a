package portal

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// ErrTokenDecode is returned when an identity token cannot be decoded.
var ErrTokenDecode = errors.New("unable to decode identity token")

// ErrMissingTokens is returned by Authenticate when either token is empty.
var ErrMissingTokens = errors.New("missing access or identity token")

// ErrUnauthenticated is surfaced by the route guard for requests that reach
// a protected handler without an authenticated session.
var ErrUnauthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is surfaced when an authenticated session lacks the role the
// route requires.
var ErrForbidden = goerrors.New("insufficient role for this page", goerrors.CategoryAuthz).
	WithCode(goerrors.CodeForbidden)
