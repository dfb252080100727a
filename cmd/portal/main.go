package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	portal "github.com/medisys/secure-portal"
	"github.com/medisys/secure-portal/client"
	"github.com/medisys/secure-portal/provider/cognito"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithName("portal"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := portal.LoadConfig()
	if err := cfg.Validate(); err != nil {
		lgr.GetLogger("config").Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(cfg))
		fmt.Println("============")
	}

	provider := cognito.Config{
		Domain:      cfg.CognitoDomain,
		ClientID:    cfg.CognitoClientID,
		RedirectURI: cfg.RedirectURI,
		LogoutURI:   cfg.LogoutRedirectURI,
		Region:      cfg.CognitoRegion,
		UserPoolID:  cfg.UserPoolID,
	}
	if err := provider.Validate(); err != nil {
		lgr.GetLogger("config").Error("invalid provider configuration", "error", err)
		os.Exit(1)
	}

	var decoder portal.IdentityDecoder
	if cfg.VerifyTokens {
		validator, err := cognito.NewTokenValidator(provider,
			cognito.WithLogger(lgr.GetLogger("cognito")),
		)
		if err != nil {
			lgr.GetLogger("cognito").Error("token validator setup failed", "error", err)
			os.Exit(1)
		}
		defer validator.Close()
		decoder = validator
	}

	manager := portal.NewSessionManager(decoder).
		WithLogger(lgr.GetLogger("session"))

	stores := portal.CookieStoreFactory
	if cfg.SessionsDSN != "" {
		storeLogger := lgr.GetLogger("sessions")
		repo, err := openSessions(cfg.SessionsDSN)
		if err != nil {
			storeLogger.Error("session store setup failed", "error", err)
			os.Exit(1)
		}
		if pruned, err := repo.PruneExpired(context.Background()); err != nil {
			storeLogger.Warn("startup session prune failed", "error", err)
		} else if pruned > 0 {
			storeLogger.Info("pruned expired sessions", "count", pruned)
		}
		stores = func(c *fiber.Ctx) portal.TokenStore {
			return portal.NewServerTokenStore(c, repo).WithLogger(storeLogger)
		}
	}

	controller := portal.NewController(
		portal.WithControllerLogger(lgr.GetLogger("http")),
		portal.WithSessionManager(manager),
		portal.WithProvider(provider),
		portal.WithDebug(cfg.Debug),
		portal.WithAPIFactory(func(identityToken string) portal.ReportAPI {
			return client.New(cfg.APIBaseURL,
				client.WithTimeout(cfg.APITimeout),
				client.WithLogger(lgr.GetLogger("api")),
				client.WithTokenSource(func() string { return identityToken }),
			)
		}),
	)

	engine := django.New("./views", ".html")

	app := fiber.New(fiber.Config{
		AppName:           "medisys-portal",
		Views:             engine,
		PassLocalsToViews: true,
	})

	app.Use(portal.SessionMiddleware(manager, stores))
	portal.RegisterRoutes(app, controller)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			lgr.GetLogger("http").Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	lgr.GetLogger("http").Info("portal listening", "addr", cfg.ListenAddr)

	WaitExitSignal()

	if err := app.Shutdown(); err != nil {
		lgr.GetLogger("http").Error("shutdown failed", "error", err)
	}
}

func openSessions(dsn string) (portal.Sessions, error) {
	db, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	bunDB := bun.NewDB(db, sqlitedialect.New())
	if err := portal.CreateSessionsTable(context.Background(), bunDB); err != nil {
		return nil, err
	}

	return portal.NewSessionsRepository(bunDB), nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
