package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"guardian/internal/catalog"
	"guardian/internal/config"
	"guardian/internal/logger"
	"guardian/internal/service"
	"guardian/internal/store"
)

func main() {
	configFile := flag.String("config", "etc/config-dev.yaml", "config file")
	email := flag.String("email", "", "seed an officer account with this email")
	password := flag.String("password", "", "password for the seeded account")
	name := flag.String("name", "", "full name for the seeded account")
	flag.Parse()

	logger.Init(config.LogConfig{Level: "info", Console: true})

	cfg := config.Load(*configFile)
	ctx := context.Background()

	// Step 1: the embedded catalog must load and validate
	cat, err := catalog.Load()
	if err != nil {
		log.Fatal("catalog invalid:", err)
	}
	logger.Info("catalog: ok",
		"assessments", len(cat.Assessments),
		"interventions", len(cat.Interventions),
		"articles", len(cat.Articles),
		"languages", len(cat.Languages))

	// Step 2: schema
	db, err := cfg.OpenGormDB()
	if err != nil {
		log.Fatal("db connect failed:", err)
	}
	if err := store.Migrate(db); err != nil {
		log.Fatal("migrate failed:", err)
	}
	logger.Info("schema: migrated", "type", cfg.Database.Type, "name", cfg.Database.Name)

	// Step 3: optional seed account
	if *email != "" {
		u, err := service.NewAuthService(db).Signup(ctx, service.SignupInput{
			Email:           *email,
			Password:        *password,
			ConfirmPassword: *password,
			FullName:        *name,
		})
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			logger.Info("seed: account already exists, skipping", "email", *email)
		case err != nil:
			log.Fatal("seed failed:", err)
		default:
			logger.Info("seed: account created", "id", u.ID.String(), "email", u.Email)
		}
	}

	logger.Info("=== all done ===")
}
