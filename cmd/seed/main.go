package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/alumni-backend/config"
	"github.com/oksasatya/alumni-backend/internal/domain/entity"
	"github.com/oksasatya/alumni-backend/internal/domain/repository"
	pginfra "github.com/oksasatya/alumni-backend/internal/infrastructure/postgres"
	"github.com/oksasatya/alumni-backend/pkg/helpers"
	"github.com/oksasatya/alumni-backend/pkg/validation"
)

// seed creates a verified SUPERUSER so the first administrator can sign in
// without a mail round trip. Re-running it is a no-op.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	name := os.Getenv("SEED_ADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}
	if email == "" || !validation.StrongPassword(password) {
		logger.Fatal("SEED_ADMIN_EMAIL and a strong SEED_ADMIN_PASSWORD are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()
	store := pginfra.NewAccountStore(pool)

	hash, err := helpers.NewPasswordHasher(helpers.DefaultArgon2Params).Hash(password)
	if err != nil {
		logger.WithError(err).Fatal("failed to hash password")
	}

	accountID := uuid.NewString()
	err = store.CreateLinked(ctx,
		&entity.Account{ID: accountID, Email: email, Role: entity.RoleSuperuser},
		&entity.Profile{ID: uuid.NewString(), UserID: accountID, Email: email, PasswordHash: hash, Name: name},
	)
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		logger.WithField("email", email).Info("superuser already exists")
		return
	case err != nil:
		logger.WithError(err).Fatal("failed to seed superuser")
	}
	if err := store.MarkOTPVerified(ctx, email); err != nil {
		logger.WithError(err).Fatal("failed to verify superuser")
	}
	logger.WithFields(logrus.Fields{"id": accountID, "email": email}).Info("seeded superuser")
}
