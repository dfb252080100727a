package portal

import (
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Config holds the portal's runtime settings. Everything comes from the
// environment; defaults target local development against a real provider
// and API stage.
type Config struct {
	ListenAddr string

	// APIBaseURL is the remote report API stage root.
	APIBaseURL string
	// APITimeout bounds each best-effort round trip. There are no retries.
	APITimeout time.Duration

	// Hosted-UI settings for the identity provider.
	CognitoDomain     string
	CognitoClientID   string
	RedirectURI       string
	LogoutRedirectURI string

	// SessionsDSN selects the server-side token store when set; empty keeps
	// tokens in cookies.
	SessionsDSN string

	// VerifyTokens enables JWKS signature verification of identity tokens.
	// Off by default: the report API re-validates the token on every call.
	VerifyTokens  bool
	CognitoRegion string
	UserPoolID    string

	Debug bool
}

// LoadConfig reads configuration from the environment.
func LoadConfig() Config {
	return Config{
		ListenAddr:        getenv("LISTEN_ADDR", ":8080"),
		APIBaseURL:        getenv("API_BASE_URL", ""),
		APITimeout:        getenvDuration("API_TIMEOUT", 30*time.Second),
		CognitoDomain:     getenv("COGNITO_DOMAIN", ""),
		CognitoClientID:   getenv("COGNITO_CLIENT_ID", ""),
		RedirectURI:       getenv("COGNITO_REDIRECT_URI", "http://localhost:8080/auth/callback"),
		LogoutRedirectURI: getenv("COGNITO_LOGOUT_URI", "http://localhost:8080/login"),
		SessionsDSN:       getenv("SESSIONS_DSN", ""),
		VerifyTokens:      getenvBool("VERIFY_ID_TOKENS", false),
		CognitoRegion:     getenv("COGNITO_REGION", ""),
		UserPoolID:        getenv("COGNITO_USER_POOL_ID", ""),
		Debug:             getenvBool("PORTAL_DEBUG", false),
	}
}

// Validate checks the settings the portal cannot run without.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIBaseURL, validation.Required, is.URL),
		validation.Field(&c.CognitoDomain, validation.Required),
		validation.Field(&c.CognitoClientID, validation.Required),
		validation.Field(&c.RedirectURI, validation.Required, is.URL),
		validation.Field(&c.LogoutRedirectURI, validation.Required, is.URL),
	)
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "yes":
		return true
	case "0", "false", "FALSE", "no":
		return false
	default:
		return fallback
	}
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
