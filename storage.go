package portal

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// DefaultCookieDuration bounds how long the token cookies outlive a login.
// The identity token expires server-side well before this; the cookie bound
// only keeps stale values from lingering.
const DefaultCookieDuration = 24 * time.Hour

// CookieTokenStore persists the two session values as HTTPOnly cookies on
// the current request/response pair. It is the default TokenStore.
type CookieTokenStore struct {
	ctx      *fiber.Ctx
	duration time.Duration
	// pending makes values written during this request visible to reads
	// before the response cookies round-trip.
	pending map[string]string
	removed map[string]bool
}

var _ TokenStore = (*CookieTokenStore)(nil)

// NewCookieTokenStore wraps the request context in a TokenStore.
func NewCookieTokenStore(ctx *fiber.Ctx) *CookieTokenStore {
	return &CookieTokenStore{
		ctx:      ctx,
		duration: DefaultCookieDuration,
		pending:  map[string]string{},
		removed:  map[string]bool{},
	}
}

func (s *CookieTokenStore) Get(key string) (string, bool) {
	if s.removed[key] {
		return "", false
	}
	if val, ok := s.pending[key]; ok {
		return val, true
	}
	val := s.ctx.Cookies(key)
	return val, val != ""
}

func (s *CookieTokenStore) Set(key, value string) {
	delete(s.removed, key)
	s.pending[key] = value
	s.ctx.Cookie(&fiber.Cookie{
		Name:     key,
		Value:    value,
		Expires:  time.Now().Add(s.duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (s *CookieTokenStore) Remove(key string) {
	delete(s.pending, key)
	s.removed[key] = true
	s.ctx.Cookie(&fiber.Cookie{
		Name:     key,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * 24 * 365),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}
