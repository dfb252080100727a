package portal

import "fmt"

// Logger is the minimal structured logger the portal depends on. It matches
// the method set of go-logger's glog.Logger so the application logger can be
// injected directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// TokenStore is the persistence port for the two session values. The web
// layer provides a per-request implementation (cookies, or a server-side
// record keyed by a session cookie); tests use an in-memory map.
type TokenStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// IdentityDecoder turns an identity token into an Identity. The default is
// the unverified payload decode in DecodeIdentity; deployments that want
// signature checks plug in a JWKS-backed validator instead.
type IdentityDecoder interface {
	DecodeIdentity(token string) (*Identity, error)
}

// IdentityDecoderFunc adapts a function into an IdentityDecoder.
type IdentityDecoderFunc func(token string) (*Identity, error)

func (f IdentityDecoderFunc) DecodeIdentity(token string) (*Identity, error) {
	return f(token)
}

// DefaultLogger returns the fallback logger used when none is injected.
func DefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) { d.print("DBG", msg, args...) }
func (d defLogger) Info(msg string, args ...any)  { d.print("INF", msg, args...) }
func (d defLogger) Warn(msg string, args ...any)  { d.print("WRN", msg, args...) }
func (d defLogger) Error(msg string, args ...any) { d.print("ERR", msg, args...) }

func (defLogger) print(level, msg string, args ...any) {
	out := "[" + level + "] PORTAL " + msg
	for i := 0; i+1 < len(args); i += 2 {
		out += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	fmt.Println(out)
}
