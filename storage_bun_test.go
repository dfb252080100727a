package portal_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	portal "github.com/medisys/secure-portal"
)

func newSessionsRepo(t *testing.T) portal.Sessions {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive for the test.
	sqldb.SetMaxOpenConns(1)
	t.Cleanup(func() { sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, portal.CreateSessionsTable(context.Background(), db))

	return portal.NewSessionsRepository(db)
}

// newStoreApp exposes the per-request store through plain handlers so tests
// can drive it the way the middleware does.
func newStoreApp(repo portal.Sessions) *fiber.App {
	app := fiber.New()

	app.Post("/set", func(c *fiber.Ctx) error {
		store := portal.NewServerTokenStore(c, repo)
		store.Set(portal.AccessTokenKey, c.Query("access"))
		store.Set(portal.IdentityTokenKey, c.Query("identity"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/get", func(c *fiber.Ctx) error {
		store := portal.NewServerTokenStore(c, repo)
		access, accessOK := store.Get(portal.AccessTokenKey)
		identity, identityOK := store.Get(portal.IdentityTokenKey)
		return c.JSON(fiber.Map{
			"access":      access,
			"access_ok":   accessOK,
			"identity":    identity,
			"identity_ok": identityOK,
		})
	})

	app.Post("/remove", func(c *fiber.Ctx) error {
		store := portal.NewServerTokenStore(c, repo)
		store.Remove(portal.AccessTokenKey)
		store.Remove(portal.IdentityTokenKey)
		return c.SendStatus(fiber.StatusNoContent)
	})

	return app
}

func sessionCookie(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == portal.SessionCookieName {
			return cookie.Value
		}
	}
	return ""
}

type storeReadout struct {
	Access     string `json:"access"`
	AccessOK   bool   `json:"access_ok"`
	Identity   string `json:"identity"`
	IdentityOK bool   `json:"identity_ok"`
}

func readStore(t *testing.T, app *fiber.App, sessionID string) storeReadout {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: portal.SessionCookieName, Value: sessionID})
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	var out storeReadout
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestServerTokenStoreRoundTrip(t *testing.T) {
	repo := newSessionsRepo(t)
	app := newStoreApp(repo)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/set?access=acc-1&identity=ident-1", nil))
	require.NoError(t, err)

	sessionID := sessionCookie(t, resp)
	require.NotEmpty(t, sessionID, "first write must issue a session cookie")

	// The browser only ever sees the opaque id.
	parsed, err := uuid.Parse(sessionID)
	require.NoError(t, err)
	assert.NotEqual(t, "acc-1", sessionID)

	out := readStore(t, app, sessionID)
	assert.True(t, out.AccessOK)
	assert.Equal(t, "acc-1", out.Access)
	assert.True(t, out.IdentityOK)
	assert.Equal(t, "ident-1", out.Identity)

	rec, err := repo.GetByID(context.Background(), parsed.String())
	require.NoError(t, err)
	assert.Equal(t, "acc-1", rec.AccessToken)
	assert.Equal(t, "ident-1", rec.IdentityToken)
}

func TestServerTokenStoreUpdatesExistingRecord(t *testing.T) {
	repo := newSessionsRepo(t)
	app := newStoreApp(repo)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/set?access=old&identity=old", nil))
	require.NoError(t, err)
	sessionID := sessionCookie(t, resp)
	require.NotEmpty(t, sessionID)

	req := httptest.NewRequest(http.MethodPost, "/set?access=new&identity=new", nil)
	req.AddCookie(&http.Cookie{Name: portal.SessionCookieName, Value: sessionID})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, sessionCookie(t, resp), "a rewrite must reuse the session, not mint a new one")

	out := readStore(t, app, sessionID)
	assert.Equal(t, "new", out.Access)
	assert.Equal(t, "new", out.Identity)
}

func TestServerTokenStoreUnknownOrGarbageCookie(t *testing.T) {
	repo := newSessionsRepo(t)
	app := newStoreApp(repo)

	out := readStore(t, app, uuid.New().String())
	assert.False(t, out.AccessOK)
	assert.False(t, out.IdentityOK)

	out = readStore(t, app, "not-a-uuid")
	assert.False(t, out.AccessOK)
	assert.False(t, out.IdentityOK)
}

func TestServerTokenStoreRemoveBothDeletesRecord(t *testing.T) {
	repo := newSessionsRepo(t)
	app := newStoreApp(repo)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/set?access=acc&identity=ident", nil))
	require.NoError(t, err)
	sessionID := sessionCookie(t, resp)
	require.NotEmpty(t, sessionID)

	req := httptest.NewRequest(http.MethodPost, "/remove", nil)
	req.AddCookie(&http.Cookie{Name: portal.SessionCookieName, Value: sessionID})
	_, err = app.Test(req)
	require.NoError(t, err)

	out := readStore(t, app, sessionID)
	assert.False(t, out.AccessOK)
	assert.False(t, out.IdentityOK)

	_, err = repo.GetByID(context.Background(), sessionID)
	assert.True(t, repository.IsRecordNotFound(err), "emptied session must be deleted, not kept as a husk")
}

func TestServerTokenStoreEvictsExpiredRecord(t *testing.T) {
	repo := newSessionsRepo(t)
	app := newStoreApp(repo)

	past := time.Now().Add(-time.Hour)
	rec, err := repo.Create(context.Background(), &portal.SessionRecord{
		ID:            uuid.New(),
		AccessToken:   "stale-access",
		IdentityToken: "stale-identity",
		ExpiresAt:     &past,
	})
	require.NoError(t, err)

	out := readStore(t, app, rec.ID.String())
	assert.False(t, out.AccessOK, "expired record must not yield tokens")
	assert.False(t, out.IdentityOK)

	_, err = repo.GetByID(context.Background(), rec.ID.String())
	assert.True(t, repository.IsRecordNotFound(err), "expired record must be evicted on access")
}

func TestSessionsPruneExpired(t *testing.T) {
	repo := newSessionsRepo(t)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	_, err := repo.Create(context.Background(), &portal.SessionRecord{
		ID:        uuid.New(),
		ExpiresAt: &past,
	})
	require.NoError(t, err)

	live, err := repo.Create(context.Background(), &portal.SessionRecord{
		ID:        uuid.New(),
		ExpiresAt: &future,
	})
	require.NoError(t, err)

	pruned, err := repo.PruneExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	kept, err := repo.GetByID(context.Background(), live.ID.String())
	require.NoError(t, err)
	assert.Equal(t, live.ID, kept.ID)
}
