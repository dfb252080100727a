package cognito

import (
	"time"

	"github.com/MicahParks/keyfunc/v2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"

	portal "github.com/medisys/secure-portal"
)

// TokenValidator verifies identity tokens against the pool's published key
// set before handing them to the payload decoder. It satisfies
// portal.IdentityDecoder, so it drops in wherever the unverified decode
// would be used.
type TokenValidator struct {
	config Config
	jwks   *keyfunc.JWKS
	logger portal.Logger
}

// ValidatorOption configures a TokenValidator.
type ValidatorOption func(*TokenValidator)

// WithLogger sets the validator logger.
func WithLogger(l portal.Logger) ValidatorOption {
	return func(v *TokenValidator) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewTokenValidator fetches the pool's JWKS and keeps it refreshed in the
// background. Call Close when the validator is no longer needed.
func NewTokenValidator(config Config, opts ...ValidatorOption) (*TokenValidator, error) {
	if err := validation.ValidateStruct(&config,
		validation.Field(&config.Region, validation.Required),
		validation.Field(&config.UserPoolID, validation.Required),
		validation.Field(&config.ClientID, validation.Required),
	); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "incomplete token validator configuration")
	}

	v := &TokenValidator{
		config: config,
		logger: portal.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(v)
	}

	jwks, err := keyfunc.Get(config.jwksURL(), keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			v.logger.Error("background JWKS refresh failed", "error", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to fetch JWKS for user pool")
	}
	v.jwks = jwks

	return v, nil
}

// Close stops the background JWKS refresh.
func (v *TokenValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// DecodeIdentity verifies the token's signature, issuer, audience, and
// expiry, then extracts the identity from the payload.
func (v *TokenValidator) DecodeIdentity(token string) (*portal.Identity, error) {
	parsed, err := jwt.Parse(token, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.config.issuerURL()),
		jwt.WithAudience(v.config.ClientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "identity token failed verification").
			WithCode(goerrors.CodeUnauthorized)
	}
	if !parsed.Valid {
		return nil, goerrors.New("identity token failed verification", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	return portal.DecodeIdentity(token)
}
