package portal

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SessionCookieName is the cookie carrying the opaque server-side session id
// when the ServerTokenStore is in use.
const SessionCookieName = "portal_session"

// DefaultSessionTTL bounds server-side session records. Matches the cookie
// bound of the cookie store.
const DefaultSessionTTL = DefaultCookieDuration

// SessionRecord holds the two persisted values for one browser session when
// tokens are kept server-side. Identity-provider tokens routinely exceed
// what fits comfortably in cookies; the record keeps only an opaque id in
// the browser.
type SessionRecord struct {
	bun.BaseModel `bun:"table:sessions,alias:sess"`

	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccessToken   string     `bun:"access_token" json:"-"`
	IdentityToken string     `bun:"identity_token" json:"-"`
	ExpiresAt     *time.Time `bun:"expires_at,nullzero" json:"expires_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Expired reports whether the record is past its TTL.
func (r *SessionRecord) Expired() bool {
	return r.ExpiresAt != nil && time.Now().After(*r.ExpiresAt)
}

// Sessions is the repository for server-side session records.
type Sessions interface {
	repository.Repository[*SessionRecord]

	DeleteByID(ctx context.Context, id uuid.UUID) error
	PruneExpired(ctx context.Context) (int, error)
}

type sessions struct {
	repository.Repository[*SessionRecord]
	db *bun.DB
}

var _ Sessions = (*sessions)(nil)

// NewSessionsRepository builds the Sessions repository on a bun DB handle.
func NewSessionsRepository(db *bun.DB) Sessions {
	repo := repository.NewRepository[*SessionRecord](db, repository.ModelHandlers[*SessionRecord]{
		NewRecord: func() *SessionRecord { return &SessionRecord{} },
		GetID: func(r *SessionRecord) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *SessionRecord, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &sessions{
		Repository: repo,
		db:         db,
	}
}

func (s *sessions) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (s *sessions) PruneExpired(ctx context.Context) (int, error) {
	res, err := s.db.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// CreateSessionsTable creates the backing table if missing. The schema is a
// single ephemeral table, so startup creation stands in for migrations.
func CreateSessionsTable(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*SessionRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// ServerTokenStore keeps the two session values in a SessionRecord and only
// an opaque session id in the browser. Satisfies TokenStore.
type ServerTokenStore struct {
	ctx      *fiber.Ctx
	sessions Sessions
	ttl      time.Duration
	logger   Logger

	record *SessionRecord
	loaded bool
}

var _ TokenStore = (*ServerTokenStore)(nil)

// NewServerTokenStore wraps the request context and repository in a
// per-request TokenStore.
func NewServerTokenStore(ctx *fiber.Ctx, repo Sessions) *ServerTokenStore {
	return &ServerTokenStore{
		ctx:      ctx,
		sessions: repo,
		ttl:      DefaultSessionTTL,
		logger:   defLogger{},
	}
}

// WithLogger replaces the store's logger.
func (s *ServerTokenStore) WithLogger(logger Logger) *ServerTokenStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *ServerTokenStore) Get(key string) (string, bool) {
	rec := s.load()
	if rec == nil {
		return "", false
	}

	var val string
	switch key {
	case AccessTokenKey:
		val = rec.AccessToken
	case IdentityTokenKey:
		val = rec.IdentityToken
	}
	return val, val != ""
}

func (s *ServerTokenStore) Set(key, value string) {
	rec := s.load()
	if rec == nil {
		rec = s.create()
		if rec == nil {
			return
		}
	}

	switch key {
	case AccessTokenKey:
		rec.AccessToken = value
	case IdentityTokenKey:
		rec.IdentityToken = value
	default:
		return
	}

	now := time.Now()
	expires := now.Add(s.ttl)
	rec.ExpiresAt = &expires
	rec.UpdatedAt = &now

	if _, err := s.sessions.Update(s.ctx.UserContext(), rec); err != nil {
		s.logger.Error("session record update failed", "error", err, "session_id", rec.ID)
	}
}

func (s *ServerTokenStore) Remove(key string) {
	rec := s.load()
	if rec == nil {
		return
	}

	switch key {
	case AccessTokenKey:
		rec.AccessToken = ""
	case IdentityTokenKey:
		rec.IdentityToken = ""
	default:
		return
	}

	if rec.AccessToken == "" && rec.IdentityToken == "" {
		if err := s.sessions.DeleteByID(s.ctx.UserContext(), rec.ID); err != nil {
			s.logger.Error("session record delete failed", "error", err, "session_id", rec.ID)
		}
		s.record = nil
		s.expireCookie()
		return
	}

	if _, err := s.sessions.Update(s.ctx.UserContext(), rec); err != nil {
		s.logger.Error("session record update failed", "error", err, "session_id", rec.ID)
	}
}

func (s *ServerTokenStore) load() *SessionRecord {
	if s.loaded {
		return s.record
	}
	s.loaded = true

	id := s.ctx.Cookies(SessionCookieName)
	if id == "" {
		return nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}

	rec, err := s.sessions.GetByID(s.ctx.UserContext(), id)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			s.logger.Error("session record lookup failed", "error", err, "session_id", id)
		}
		return nil
	}

	if rec.Expired() {
		if err := s.sessions.DeleteByID(s.ctx.UserContext(), rec.ID); err != nil {
			s.logger.Error("expired session cleanup failed", "error", err, "session_id", rec.ID)
		}
		s.expireCookie()
		return nil
	}

	s.record = rec
	return rec
}

func (s *ServerTokenStore) create() *SessionRecord {
	now := time.Now()
	expires := now.Add(s.ttl)
	rec := &SessionRecord{
		ID:        uuid.New(),
		ExpiresAt: &expires,
		CreatedAt: &now,
	}

	created, err := s.sessions.Create(s.ctx.UserContext(), rec)
	if err != nil {
		s.logger.Error("session record create failed", "error", err)
		return nil
	}

	s.ctx.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    created.ID.String(),
		Expires:  expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})

	s.record = created
	s.loaded = true
	return created
}

func (s *ServerTokenStore) expireCookie() {
	s.ctx.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * 24 * 365),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}
