package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	ident "github.com/lanternhq/go-ident"
	"github.com/lanternhq/go-ident/config"
	"github.com/lanternhq/go-ident/store"
	"github.com/lanternhq/go-ident/turnstile"
)

func main() {
	// Missing .env is fine; the environment may be set by the runtime.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run(cfg *config.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := store.New(store.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})
	if err := db.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		_ = db.Close(context.Background())
	}()

	tokens := ident.NewTokenService([]byte(cfg.Auth.SigningSecret), cfg.Auth.Issuer, nil)

	verifier := turnstile.New(cfg.Auth.TurnstileSecret)
	accounts := ident.NewAccounts(db, tokens, verifier).
		WithVerificationBypass(cfg.Auth.SkipHumanVerification)

	app := fiber.New(fiber.Config{
		AppName:               "go-ident",
		DisableStartupMessage: cfg.IsProduction(),
	})

	// The guard runs on every navigational request; API and asset paths
	// opt out and rely on the bearer middleware instead.
	app.Use(ident.NewRouteGuard(ident.RouteGuardConfig{
		Tokens: tokens,
		Skip: func(c *fiber.Ctx) bool {
			path := c.Path()
			return strings.HasPrefix(path, "/auth/") ||
				strings.HasPrefix(path, "/user/") ||
				strings.HasPrefix(path, "/users") ||
				strings.HasPrefix(path, "/healthz") ||
				strings.Contains(path, ".")
		},
	}))

	controller := ident.NewController(accounts,
		ident.WithSecureCookies(cfg.IsProduction()),
	)
	controller.RegisterRoutes(app, ident.Protected(tokens))

	registerPages(app)

	errc := make(chan error, 1)
	go func() {
		errc <- app.Listen(cfg.HTTP.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return app.ShutdownWithTimeout(cfg.HTTP.ShutdownTimeout)
	}
}

// registerPages mounts placeholder navigational routes so the guard has
// pages to classify. The real presentation layer lives outside this service.
func registerPages(app *fiber.App) {
	page := func(title string) fiber.Handler {
		return func(c *fiber.Ctx) error {
			return c.SendString(title)
		}
	}

	app.Get("/", page("home"))
	app.Get("/login", page("login"))
	app.Get("/register", page("register"))
	app.Get("/dashboard", page("dashboard"))
	app.Get("/demo", page("demo"))
	app.Get("/profile", page("profile"))
}
