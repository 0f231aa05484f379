package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnection_NilPool(t *testing.T) {
	c := &Connection{}

	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}

func TestNewConnection_InvalidDSN(t *testing.T) {
	_, err := NewConnection(context.Background(), "://not-a-dsn", 0)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse postgres dsn")
}
