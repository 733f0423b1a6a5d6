package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	goerrors "github.com/goliatone/go-errors"
	identity "github.com/pawdoption/go-identity"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Seeds the bootstrap admin account. Safe to run repeatedly: if the email
// is already registered the run is a no-op.
func main() {
	var (
		email    = flag.String("email", envOr("ADMIN_EMAIL", "admin@pawdoption.local"), "admin email")
		password = flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
		fullname = flag.String("fullname", "PAWdoption Admin", "admin full name")
		phone    = flag.String("phone", "+14155550100", "admin phone number")
		address  = flag.String("address", "HQ", "admin address")
	)
	flag.Parse()

	if *password == "" {
		log.Fatal("missing admin password: set ADMIN_PASSWORD or pass -password")
	}

	ctx := context.Background()

	cfg, err := identity.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := openDB(ctx, cfg.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	repo := identity.NewRepositoryManager(db)
	creds := identity.NewCredentials(repo, cfg)

	user, err := creds.Register(ctx, identity.RegisterUserMessage{
		FullName:  *fullname,
		Email:     *email,
		Phone:     *phone,
		Address:   *address,
		Password:  *password,
		Role:      string(identity.RoleAdmin),
		UseHashid: true,
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryConflict {
			log.Printf("admin %s already seeded, nothing to do", *email)
			return
		}
		log.Fatal(err)
	}

	log.Printf("seeded admin %s (display id %d)", user.Email, user.DisplayID)
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

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
