//go:build integration

package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medusa-ctf/medusa-backend/app"
	"github.com/medusa-ctf/medusa-backend/config"
	"github.com/medusa-ctf/medusa-backend/integration_tests/containers"
	"github.com/medusa-ctf/medusa-backend/pkg/observability"
	"github.com/testcontainers/testcontainers-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"golang.org/x/crypto/bcrypt"
)

const (
	Round1Flag    = "MEDUSA{th3_g4z3_0f_m3dus4}"
	AndroidFlag   = "MEDUSA{4ndr01d_sn4k3}"
	PWNUserFlag   = "MEDUSAPWN{us3r_st0n3}"
	PWNRootFlag   = "MEDUSAPWN{r00t_st0n3}"
	AdminUsername = "admin"
	AdminPassword = "perseus-shield"
)

// TestEnvironment holds the containers shared by a test package.
type TestEnvironment struct {
	Ctx        context.Context
	cancel     context.CancelFunc
	containers []testcontainers.Container
	DB         *bun.DB
	PgConnStr  string
	NatsURL    string
	RedisAddr  string
}

// NewTestEnvironment starts Postgres, NATS and Redis and applies migrations.
func NewTestEnvironment() (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{Ctx: ctx, cancel: cancel}

	pg, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		env.Terminate()
		return nil, err
	}
	env.containers = append(env.containers, pg)
	env.PgConnStr = pgConnStr

	nc, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		env.Terminate()
		return nil, err
	}
	env.containers = append(env.containers, nc)
	env.NatsURL = natsURL

	rc, redisAddr, err := containers.SetupRedisContainer(ctx)
	if err != nil {
		env.Terminate()
		return nil, err
	}
	env.containers = append(env.containers, rc)
	env.RedisAddr = redisAddr

	sqlDB, err := sql.Open("pgx", pgConnStr)
	if err != nil {
		env.Terminate()
		return nil, fmt.Errorf("failed to open sql DB connection: %w", err)
	}
	env.DB = bun.NewDB(sqlDB, pgdialect.New())

	if err := runMigrations(ctx, env.DB, pgConnStr); err != nil {
		env.Terminate()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return env, nil
}

// Config returns a full configuration pointing at the containers.
func (env *TestEnvironment) Config(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash admin password: %v", err)
	}

	return &config.Config{
		Postgres: config.PostgresConfig{DSN: env.PgConnStr},
		Storage:  config.StorageConfig{Driver: "postgres"},
		HTTP:     config.HTTPConfig{Address: "127.0.0.1:0", RateLimit: 1000, RateBurst: 1000},
		JWT:      config.JWTConfig{Secret: "integration-secret-integration", DefaultTTL: time.Hour, Issuer: "medusa-ctf"},
		Admin:    config.AdminConfig{Username: AdminUsername, PasswordHash: string(hash)},
		Flags: config.FlagsConfig{
			Prefix:    "MEDUSA",
			PWNPrefix: "MEDUSAPWN",
			Round1:    Round1Flag,
			Android:   AndroidFlag,
			PWNUser:   PWNUserFlag,
			PWNRoot:   PWNRootFlag,
		},
		Hints: config.HintsConfig{
			Round1: []config.HintConfig{
				{Cost: 50, Text: "Look at her reflection."},
				{Cost: 100, Text: "The shield is polished bronze."},
			},
			Android: []config.HintConfig{{Cost: 75, Text: "Decompile the APK."}},
		},
		Event:      config.EventConfig{Round1Start: time.Now().Add(-time.Hour), Round2Start: time.Now().Add(-time.Hour)},
		Submission: config.SubmissionConfig{UnitTimeout: 5 * time.Second},
		NATS:       config.NATSConfig{URL: env.NatsURL},
		Redis:      config.RedisConfig{Addr: env.RedisAddr, TTL: 30 * time.Second},
		Queue:      config.QueueConfig{Enabled: true},
	}
}

// StartApp builds the application on a clean database and serves its router.
// Everything is torn down with t.Cleanup.
func (env *TestEnvironment) StartApp(t *testing.T) *Client {
	t.Helper()
	if err := CleanupDatabase(env.Ctx, env.DB); err != nil {
		t.Fatalf("failed to clean database: %v", err)
	}

	ctx, cancel := context.WithCancel(env.Ctx)
	application, err := app.NewApp(ctx, env.Config(t), observability.NewNoop())
	if err != nil {
		cancel()
		t.Fatalf("failed to build app: %v", err)
	}
	application.StartModules(ctx)
	server := httptest.NewServer(application.Router)

	t.Cleanup(func() {
		server.Close()
		cancel()
		application.Close()
	})
	return &Client{t: t, server: server, App: application}
}

// Terminate stops every container.
func (env *TestEnvironment) Terminate() {
	if env.DB != nil {
		_ = env.DB.Close()
	}
	for _, c := range env.containers {
		if err := c.Terminate(context.Background()); err != nil {
			log.Printf("Failed to terminate container: %v", err)
		}
	}
	env.cancel()
}
