package portal

// Storage keys for the two persisted session values. These are the only
// durable client state the portal keeps.
const (
	AccessTokenKey   = "access_token"
	IdentityTokenKey = "id_token"
)

// SessionState is the lifecycle state of a Session.
type SessionState int

const (
	// StateUninitialized means hydration has not run yet; no authorization
	// decision may be made from it.
	StateUninitialized SessionState = iota
	// StateUnauthenticated is a confirmed absence of a valid session.
	StateUnauthenticated
	// StateAuthenticated carries tokens and a decoded identity.
	StateAuthenticated
)

// Session is the authentication state derived from the persisted tokens.
// It is created by SessionManager and read-only everywhere else.
type Session struct {
	State         SessionState
	AccessToken   string
	IdentityToken string
	Identity      *Identity
}

// Authenticated reports whether the session carries a valid identity.
func (s *Session) Authenticated() bool {
	return s != nil && s.State == StateAuthenticated && s.Identity != nil
}

// Role returns the derived tri-state role, or RoleNone when unauthenticated.
func (s *Session) Role() Role {
	if !s.Authenticated() {
		return RoleNone
	}
	return s.Identity.PrimaryRole()
}

// SessionManager owns the session lifecycle. It is the only writer of the
// persisted values; everything else reads the Session it produces.
type SessionManager struct {
	decoder IdentityDecoder
	logger  Logger
}

// NewSessionManager creates a manager using the given decoder, defaulting to
// the unverified payload decode.
func NewSessionManager(decoder IdentityDecoder) *SessionManager {
	if decoder == nil {
		decoder = IdentityDecoderFunc(DecodeIdentity)
	}
	return &SessionManager{
		decoder: decoder,
		logger:  defLogger{},
	}
}

// WithLogger replaces the manager's logger.
func (m *SessionManager) WithLogger(logger Logger) *SessionManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Hydrate loads the session from the store. Both values must be present and
// the identity token must decode; anything else yields a confirmed
// unauthenticated session. Hydrate never errors: a broken token is treated
// the same as an absent one.
func (m *SessionManager) Hydrate(store TokenStore) *Session {
	access, okAccess := store.Get(AccessTokenKey)
	identityToken, okIdentity := store.Get(IdentityTokenKey)
	if !okAccess || !okIdentity || access == "" || identityToken == "" {
		return &Session{State: StateUnauthenticated}
	}

	identity, err := m.decoder.DecodeIdentity(identityToken)
	if err != nil {
		m.logger.Warn("stored identity token failed to decode", "error", err)
		return &Session{State: StateUnauthenticated}
	}

	return &Session{
		State:         StateAuthenticated,
		AccessToken:   access,
		IdentityToken: identityToken,
		Identity:      identity,
	}
}

// Authenticate establishes a new session from freshly issued tokens. On
// decode failure it fails closed: both persisted values are cleared and the
// decode error is returned.
func (m *SessionManager) Authenticate(store TokenStore, accessToken, identityToken string) (*Session, error) {
	if accessToken == "" || identityToken == "" {
		m.Logout(store)
		return &Session{State: StateUnauthenticated}, ErrMissingTokens
	}

	identity, err := m.decoder.DecodeIdentity(identityToken)
	if err != nil {
		m.logger.Error("authentication rejected, identity token undecodable", "error", err)
		m.Logout(store)
		return &Session{State: StateUnauthenticated}, err
	}

	store.Set(AccessTokenKey, accessToken)
	store.Set(IdentityTokenKey, identityToken)

	m.logger.Info("session established", "email", identity.Email, "role", identity.PrimaryRole())

	return &Session{
		State:         StateAuthenticated,
		AccessToken:   accessToken,
		IdentityToken: identityToken,
		Identity:      identity,
	}, nil
}

// Logout clears both persisted values unconditionally, even if only one was
// present. The caller is responsible for redirecting to the provider's
// hosted logout endpoint afterwards.
func (m *SessionManager) Logout(store TokenStore) {
	store.Remove(AccessTokenKey)
	store.Remove(IdentityTokenKey)
}
