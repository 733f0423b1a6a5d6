package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	identity "github.com/pawdoption/go-identity"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	ctx := context.Background()

	cfg, err := identity.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := identity.DefaultLogger()

	db, err := openDB(ctx, cfg.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	repo := identity.NewRepositoryManager(db)

	creds := identity.NewCredentials(repo, cfg).WithLogger(logger)
	auther := identity.NewAuthenticator(creds, cfg).WithLogger(logger)
	guard := identity.NewGuard(auther, auther.TokenService(), cfg).WithLogger(logger)

	// TODO: swap for an SMTP transport once the notification service lands
	mailer := identity.NewLogMailer(logger)
	resets := identity.NewPasswordResets(repo, mailer, cfg).WithLogger(logger)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: cfg.Debug,
			StrictRouting:     false,
		}))
	})

	identity.RegisterAuthRoutes(srv.Router().Group("/"),
		func(ac *identity.AuthController) *identity.AuthController {
			ac.Debug = cfg.Debug
			return ac
		},
		identity.WithCredentials(creds),
		identity.WithAuthenticator(auther, auther.TokenService()),
		identity.WithPasswordResets(resets),
		identity.WithControllerLogger(logger),
	)

	users := identity.NewUsersController(repo).WithLogger(logger)
	identity.RegisterUserRoutes(srv.Router().Group("/"), guard, users)

	logger.Info("identity service listening", "addr", cfg.HTTPAddr)

	srv.Serve(cfg.HTTPAddr)

	WaitExitSignal()
}

func openDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := identity.CreateTables(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
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
