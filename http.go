package portal

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Locals keys used by the session middleware.
const (
	SessionContextKey    = "portal_session_state"
	TokenStoreContextKey = "portal_token_store"
)

// TokenStoreFactory builds the per-request TokenStore. The default binds
// cookies on the request context; deployments with server-side sessions
// plug in a factory over their repository.
type TokenStoreFactory func(c *fiber.Ctx) TokenStore

// CookieStoreFactory is the default TokenStoreFactory.
func CookieStoreFactory(c *fiber.Ctx) TokenStore {
	return NewCookieTokenStore(c)
}

// SessionMiddleware hydrates the session once per request and stashes it,
// along with the store, in the request locals. Every route runs through it,
// public ones included, so templates can always render auth-aware chrome.
func SessionMiddleware(manager *SessionManager, stores TokenStoreFactory) fiber.Handler {
	if stores == nil {
		stores = CookieStoreFactory
	}
	return func(c *fiber.Ctx) error {
		store := stores(c)
		session := manager.Hydrate(store)
		c.Locals(TokenStoreContextKey, store)
		c.Locals(SessionContextKey, session)
		return c.Next()
	}
}

// SessionFromCtx returns the hydrated session for this request. Outside the
// middleware it returns an uninitialized session, which every guard treats
// as not-yet-known rather than unauthenticated.
func SessionFromCtx(c *fiber.Ctx) *Session {
	if session, ok := c.Locals(SessionContextKey).(*Session); ok && session != nil {
		return session
	}
	return &Session{State: StateUninitialized}
}

// TokenStoreFromCtx returns the per-request store placed by the middleware.
func TokenStoreFromCtx(c *fiber.Ctx) TokenStore {
	if store, ok := c.Locals(TokenStoreContextKey).(TokenStore); ok && store != nil {
		return store
	}
	return NewCookieTokenStore(c)
}

// Protected rejects requests without an authenticated session. Page
// navigations bounce to the login screen; fetch-style requests get a 401
// body instead, since a redirect is useless to script.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := SessionFromCtx(c)
		if session.State == StateUninitialized {
			// The middleware did not run; fail closed.
			return deny(c, fiber.StatusUnauthorized, ErrUnauthenticated.Error(), RouteLogin)
		}
		if !session.Authenticated() {
			return deny(c, fiber.StatusUnauthorized, ErrUnauthenticated.Error(), RouteLogin)
		}
		return c.Next()
	}
}

// RequireAccess enforces the role/route visibility table on the request
// path. Authenticated sessions that lack the page are sent to the
// dashboard, never to an error page.
func RequireAccess() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := SessionFromCtx(c)
		if !session.Authenticated() {
			return deny(c, fiber.StatusUnauthorized, ErrUnauthenticated.Error(), RouteLogin)
		}
		if !CanAccess(session.Role(), c.Path()) {
			return deny(c, fiber.StatusForbidden, ErrForbidden.Error(), RouteDashboard)
		}
		return c.Next()
	}
}

// RequireRoles guards routes whose path is not in the visibility table,
// like the row-level verify endpoint. The session must be authenticated
// and carry one of the given roles.
func RequireRoles(roles ...Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := SessionFromCtx(c)
		if !session.Authenticated() {
			return deny(c, fiber.StatusUnauthorized, ErrUnauthenticated.Error(), RouteLogin)
		}
		have := session.Role()
		for _, role := range roles {
			if have == role {
				return c.Next()
			}
		}
		return deny(c, fiber.StatusForbidden, ErrForbidden.Error(), RouteDashboard)
	}
}

// RedirectAuthenticated sends already signed-in visitors from the public
// auth pages to the dashboard.
func RedirectAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if SessionFromCtx(c).Authenticated() {
			return c.Redirect(RouteDashboard, fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// NotFoundHandler routes unknown paths to the dashboard, where the guard
// chain takes over for unauthenticated visitors.
func NotFoundHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if wantsJSON(c) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "not found",
			})
		}
		return c.Redirect(RouteDashboard, fiber.StatusSeeOther)
	}
}

func deny(c *fiber.Ctx, status int, message, redirect string) error {
	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{
			"error": message,
		})
	}
	return c.Redirect(redirect, fiber.StatusSeeOther)
}

// wantsJSON distinguishes fetch calls from page navigations.
func wantsJSON(c *fiber.Ctx) bool {
	accept := c.Get(fiber.HeaderAccept)
	if strings.Contains(accept, fiber.MIMEApplicationJSON) {
		return true
	}
	return c.Method() != fiber.MethodGet && !strings.Contains(accept, fiber.MIMETextHTML)
}
