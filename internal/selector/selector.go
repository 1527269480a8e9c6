// Package selector chooses the credential directory at startup. The external
// directory is preferred; every reason for falling back to the mock is logged
// and returned to the caller.
package selector

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"authboilerplate/backend/internal/config"
	domain "authboilerplate/backend/internal/domain/auth"
	"authboilerplate/backend/internal/infrastructure/memory"
	"authboilerplate/backend/internal/infrastructure/mongodb"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

// Options carries everything Select needs to build either directory.
type Options struct {
	BuildPhase bool
	// Production disables dev login on the mock and refuses the published
	// default fixture password.
	Production bool
	Mode       config.Mode
	Mongo      mongodb.Config
	Hasher     domain.PasswordHasher
	Mock       memory.DirectoryOptions
	Logger     *zap.Logger
}

// Result is the chosen directory. Close releases any external connection.
type Result struct {
	Directory      domain.Directory
	Mode           config.Mode
	FallbackReason string
	Close          func(context.Context) error
}

// Fallback reports whether the mock was chosen in place of the external directory.
func (r Result) Fallback() bool {
	return r.FallbackReason != ""
}

var connectExternal = func(ctx context.Context, cfg mongodb.Config) (*mongo.Client, error) {
	return mongodb.Connect(ctx, cfg)
}

var ensureIndexes = func(ctx context.Context, d *mongodb.Directory) error {
	return d.EnsureIndexes(ctx)
}

func noopClose(context.Context) error { return nil }

var readRand = rand.Read

func randomFixturePassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := readRand(buf); err != nil {
		return "", fmt.Errorf("generate fixture password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Select picks the directory. The error is non-nil only when the mock itself
// cannot be built.
func Select(ctx context.Context, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch {
	case opts.BuildPhase:
		logger.Info("build phase, using mock directory")
		return mock(opts, logger, "")
	case opts.Mode == config.ModeMock:
		logger.Info("mock mode requested, using mock directory")
		return mock(opts, logger, "")
	}

	dir, closeFn, err := external(ctx, opts, logger)
	if err != nil {
		reason := err.Error()
		logger.Warn("external directory unavailable, falling back to mock",
			zap.String("requested_mode", string(opts.Mode)),
			zap.String("reason", reason),
		)
		return mock(opts, logger, reason)
	}

	logger.Info("using external directory", zap.String("database", opts.Mongo.Database))
	return Result{Directory: dir, Mode: config.ModeExternal, Close: closeFn}, nil
}

func external(ctx context.Context, opts Options, logger *zap.Logger) (domain.Directory, func(context.Context) error, error) {
	if err := opts.Mongo.Validate(); err != nil {
		return nil, nil, err
	}
	client, err := connectExternal(ctx, opts.Mongo)
	if err != nil {
		return nil, nil, fmt.Errorf("connect external directory: %w", err)
	}

	dir := mongodb.NewDirectory(client.Database(opts.Mongo.Database), opts.Hasher, logger.Named("directory.external"))
	if err := ensureIndexes(ctx, dir); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return dir, client.Disconnect, nil
}

func mock(opts Options, logger *zap.Logger, reason string) (Result, error) {
	mockOpts := opts.Mock
	mockOpts.SeedFixtures = true
	if opts.Production {
		mockOpts.DevLogin = false
		if mockOpts.FixturePassword == "" {
			pw, err := randomFixturePassword()
			if err != nil {
				return Result{}, err
			}
			mockOpts.FixturePassword = pw
			logger.Warn("mock directory in production without MOCK_FIXTURE_PASSWORD, fixture users got a random password")
		}
	}
	dir, err := memory.NewDirectory(opts.Hasher, logger.Named("directory.mock"), mockOpts)
	if err != nil {
		return Result{}, fmt.Errorf("build mock directory: %w", err)
	}
	return Result{
		Directory:      dir,
		Mode:           config.ModeMock,
		FallbackReason: reason,
		Close:          noopClose,
	}, nil
}
