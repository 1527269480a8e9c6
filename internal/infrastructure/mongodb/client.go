package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// DefaultConnectTimeout bounds connection and the initial ping.
const DefaultConnectTimeout = 10 * time.Second

// ErrMissingConfig is returned when required connection settings are absent.
var ErrMissingConfig = errors.New("mongodb configuration incomplete")

// Config holds the connection settings for the document store.
type Config struct {
	URI      string
	Database string
	Username string
	Password string

	ConnectTimeout time.Duration
}

// Validate reports which required settings are missing.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.URI) == "" {
		missing = append(missing, "uri")
	}
	if strings.TrimSpace(c.Database) == "" {
		missing = append(missing, "database")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Connect validates cfg, connects and pings the primary.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAuth(options.Credential{Username: cfg.Username, Password: cfg.Password}).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}
	return client, nil
}
