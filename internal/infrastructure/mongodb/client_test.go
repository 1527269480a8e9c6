package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	err := Config{}.Validate()
	require.ErrorIs(t, err, ErrMissingConfig)
	assert.Contains(t, err.Error(), "uri, database, username, password")

	err = Config{URI: "mongodb://localhost", Database: "app", Username: "svc"}.Validate()
	require.ErrorIs(t, err, ErrMissingConfig)
	assert.Contains(t, err.Error(), "missing password")

	assert.NoError(t, Config{URI: "mongodb://localhost", Database: "app", Username: "svc", Password: "pw"}.Validate())
}

func TestConnectRejectsIncompleteConfig(t *testing.T) {
	_, err := Connect(context.Background(), Config{URI: "mongodb://localhost:27017"})
	assert.ErrorIs(t, err, ErrMissingConfig)
}
