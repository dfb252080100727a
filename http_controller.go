package portal

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"

	"github.com/medisys/secure-portal/client"
)

// ReportAPI is the slice of the report backend the controller consumes.
// *client.Client satisfies it; tests substitute fakes.
type ReportAPI interface {
	MyReports(ctx context.Context) ([]client.Report, error)
	AllReports(ctx context.Context) ([]client.Report, error)
	VerifyReport(ctx context.Context, reportID string) (*client.ActionResponse, error)
	UploadReport(ctx context.Context, payload client.UploadReportPayload) (*client.ActionResponse, error)
	Users(ctx context.Context) ([]client.SystemUser, error)
	CreateUser(ctx context.Context, payload client.CreateUserPayload) (*client.ActionResponse, error)
	DeleteUser(ctx context.Context, payload client.DeleteUserPayload) (*client.ActionResponse, error)
	DashboardStats(ctx context.Context) (*client.DashboardStats, error)
}

// APIFactory builds a ReportAPI bound to one session's identity token. The
// backend authorizes on that token, so every request needs a fresh binding.
type APIFactory func(identityToken string) ReportAPI

// HostedAuth exposes the provider's hosted UI entry points. The Cognito
// provider config satisfies it.
type HostedAuth interface {
	LoginURL() string
	LogoutURL() string
}

// ControllerViews names the templates each page renders.
type ControllerViews struct {
	Login       string
	Callback    string
	Dashboard   string
	Profile     string
	Upload      string
	MyReports   string
	AllReports  string
	ManageUsers string
}

// Controller serves every portal page and the fetch endpoints behind them.
type Controller struct {
	Debug    bool
	Logger   Logger
	Sessions *SessionManager
	API      APIFactory
	Provider HostedAuth
	Views    *ControllerViews
}

// ControllerOption configures the Controller.
type ControllerOption func(*Controller) *Controller

// WithControllerLogger sets the controller logger.
func WithControllerLogger(l Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// WithSessionManager sets the session manager.
func WithSessionManager(m *SessionManager) ControllerOption {
	return func(c *Controller) *Controller {
		c.Sessions = m
		return c
	}
}

// WithAPIFactory sets the report API binding.
func WithAPIFactory(f APIFactory) ControllerOption {
	return func(c *Controller) *Controller {
		c.API = f
		return c
	}
}

// WithProvider sets the hosted auth provider.
func WithProvider(p HostedAuth) ControllerOption {
	return func(c *Controller) *Controller {
		c.Provider = p
		return c
	}
}

// WithDebug toggles payload dumps in the logs.
func WithDebug(debug bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.Debug = debug
		return c
	}
}

// NewController builds a Controller. The API factory and provider are
// mandatory; there is no useful portal without them.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger: defLogger{},
		Views: &ControllerViews{
			Login:       "login",
			Callback:    "callback",
			Dashboard:   "dashboard",
			Profile:     "profile",
			Upload:      "upload",
			MyReports:   "my_reports",
			AllReports:  "all_reports",
			ManageUsers: "manage_users",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Sessions == nil {
		c.Sessions = NewSessionManager(nil)
	}

	if c.API == nil {
		panic("Missing API factory in portal controller...")
	}

	if c.Provider == nil {
		panic("Missing hosted auth provider in portal controller...")
	}

	return c
}

// RegisterRoutes mounts every portal route on the app. The session
// middleware must already be installed.
func RegisterRoutes(app *fiber.App, controller *Controller) {
	app.Get(RouteLogin, RedirectAuthenticated(), controller.LoginShow)
	app.Get(RouteAuthCallback, controller.AuthCallbackShow)
	app.Post(RouteSessionCreate, controller.SessionCreate)
	app.Get(RouteLogout, controller.Logout)

	app.Get(RouteDashboard, Protected(), RequireAccess(), controller.DashboardShow)
	app.Get(RouteProfile, Protected(), RequireAccess(), controller.ProfileShow)

	app.Get(RouteUpload, Protected(), RequireAccess(), controller.UploadShow)
	app.Post(RouteUpload, Protected(), RequireAccess(), controller.UploadCreate)

	app.Get(RouteMyReports, Protected(), RequireAccess(), controller.MyReportsShow)
	app.Get(RouteAllReports, Protected(), RequireAccess(), controller.AllReportsShow)
	app.Put(RouteAllReports+"/:id/verify", Protected(), RequireRoles(RoleAdmin, RoleStaff), controller.VerifyReport)

	app.Get(RouteManageUsers, Protected(), RequireAccess(), controller.ManageUsersShow)
	app.Post(RouteManageUsers, Protected(), RequireRoles(RoleAdmin), controller.UserCreate)
	app.Delete(RouteManageUsers, Protected(), RequireRoles(RoleAdmin), controller.UserDelete)

	app.Use(NotFoundHandler())
}

// api binds the report client to the current session's identity token.
func (a *Controller) api(c *fiber.Ctx) ReportAPI {
	return a.API(SessionFromCtx(c).IdentityToken)
}

// LoginShow renders the sign-in page with the hosted UI entry link.
func (a *Controller) LoginShow(c *fiber.Ctx) error {
	return c.Render(a.Views.Login, ViewContext(c, fiber.Map{
		"login_url": a.Provider.LoginURL(),
	}))
}

// AuthCallbackShow renders the token relay page. The hosted UI returns the
// tokens in the URL fragment, which never reaches the server; the page's
// script lifts them out of the fragment and posts them to SessionCreate.
func (a *Controller) AuthCallbackShow(c *fiber.Ctx) error {
	return c.Render(a.Views.Callback, ViewContext(c, fiber.Map{
		"session_url": RouteSessionCreate,
		"login_url":   RouteLogin,
	}))
}

// SessionCreateRequest is the token relay payload.
type SessionCreateRequest struct {
	AccessToken   string `form:"access_token" json:"access_token"`
	IdentityToken string `form:"id_token" json:"id_token"`
}

// Validate will run validation rules
func (r SessionCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AccessToken, validation.Required),
		validation.Field(&r.IdentityToken, validation.Required),
	)
}

// SessionCreate establishes the session from relayed tokens. Any failure
// leaves the visitor signed out with nothing persisted.
func (a *Controller) SessionCreate(c *fiber.Ctx) error {
	payload := new(SessionCreateRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("session create: unreadable payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid payload",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if a.Debug {
		a.Logger.Debug("session create", "payload", print.MaybePrettyJSON(payload))
	}

	store := TokenStoreFromCtx(c)
	session, err := a.Sessions.Authenticate(store, payload.AccessToken, payload.IdentityToken)
	if err != nil {
		a.Logger.Warn("session create rejected", "error", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "could not establish a session",
		})
	}

	// Make the new session visible to this request's view context.
	c.Locals(SessionContextKey, session)

	return c.JSON(fiber.Map{
		"redirect": RouteDashboard,
	})
}

// Logout clears the local session and hands off to the provider's hosted
// sign-out, which lands back on the login page.
func (a *Controller) Logout(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	if session.Authenticated() {
		a.Logger.Info("session ended", "email", session.Identity.Email)
	}

	a.Sessions.Logout(TokenStoreFromCtx(c))

	return c.Redirect(a.Provider.LogoutURL(), fiber.StatusSeeOther)
}
