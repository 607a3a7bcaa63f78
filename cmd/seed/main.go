package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/LeslieKogi/sunrise-backend/internal/config"
	"github.com/LeslieKogi/sunrise-backend/internal/repository"
	"github.com/LeslieKogi/sunrise-backend/internal/seed"
	"github.com/LeslieKogi/sunrise-backend/internal/service"
)

type options struct {
	flavoursPath string
	adminUser    string
	adminPass    string
}

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	repository.SetLogger(log)
	service.SetLogger(log)
	seed.SetLogger(log)

	opts := options{}
	flag.StringVar(&opts.flavoursPath, "flavours", "", "YAML flavour list (default: built-in catalog)")
	flag.StringVar(&opts.adminUser, "admin-user", os.Getenv("ADMIN_USERNAME"), "admin username to create")
	flag.StringVar(&opts.adminPass, "admin-password", os.Getenv("ADMIN_PASSWORD"), "admin password to create")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Error().Err(err).Msg("Seeding failed")
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := cfg.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	inputs, err := seed.LoadFlavours(opts.flavoursPath)
	if err != nil {
		return fmt.Errorf("load flavours: %w", err)
	}

	flavours := service.NewFlavourService(repository.NewFlavourRepository(store), nil, 0)
	if _, err := seed.Flavours(ctx, flavours, inputs); err != nil {
		return fmt.Errorf("seed flavours: %w", err)
	}

	if opts.adminUser != "" {
		auth := service.NewAuthService(repository.NewAdminRepository(store), cfg.SecretKey, cfg.TokenTTL)
		if _, err := seed.Admin(ctx, auth, opts.adminUser, opts.adminPass); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
	}
	return nil
}
