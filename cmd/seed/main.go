// Command seed creates an account directly in the database, typically the
// first admin of a fresh deployment.
//
//	SEED_PASSWORD=... seed -email admin@example.com -name Admin -role admin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/revtrack/revenue-tracker/internal/core/domain"
	"github.com/revtrack/revenue-tracker/internal/core/ports"
	"github.com/revtrack/revenue-tracker/internal/core/service"
	mongodb "github.com/revtrack/revenue-tracker/internal/infrastructure/db/mongo"
	"github.com/revtrack/revenue-tracker/internal/pkg/config"
	"github.com/revtrack/revenue-tracker/pkg/logger"
	"github.com/revtrack/revenue-tracker/pkg/rbac"
)

func main() {
	email := flag.String("email", "", "account email (required)")
	name := flag.String("name", "Administrator", "display name")
	role := flag.String("role", string(rbac.RoleAdmin), "role: admin, lead or user")
	affiliations := flag.String("affiliations", "", "comma-separated affiliation ids")
	flag.Parse()

	log := logger.Init(logger.Options{Level: "info", Pretty: true, Service: "seed"})

	if err := seed(context.Background(), *email, *name, *role, *affiliations, os.Getenv("SEED_PASSWORD")); err != nil {
		log.Error().Err(err).Msg("seed failed")
		os.Exit(1)
	}
}

func seed(ctx context.Context, email, name, roleName, affiliations, password string) error {
	log := logger.Get()

	if strings.TrimSpace(email) == "" {
		return errors.New("-email is required")
	}
	if password == "" {
		return errors.New("SEED_PASSWORD is required")
	}
	role, ok := rbac.Parse(roleName)
	if !ok {
		return fmt.Errorf("unknown role %q", roleName)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	accounts := mongodb.NewAccountRepository(db)
	if err := mongodb.EnsureIndexes(ctx, accounts); err != nil {
		return err
	}

	codec, err := service.NewTokenCodec([]byte(cfg.Session.Secret), cfg.Session.TTL)
	if err != nil {
		return err
	}
	svc := service.NewAuthService(accounts, codec, logger.For("auth"))

	var ids []string
	for _, id := range strings.Split(affiliations, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	account, err := svc.Register(ctx, ports.RegisterInput{
		Email:          email,
		Name:           name,
		Password:       password,
		Role:           role,
		AffiliationIDs: ids,
	})
	if errors.Is(err, domain.ErrAccountExists) {
		log.Warn().Str("email", email).Msg("account already exists, nothing to do")
		return nil
	}
	if err != nil {
		return err
	}

	log.Info().Str("account_id", account.ID).Str("role", account.Role.String()).Msg("account created")
	return nil
}
