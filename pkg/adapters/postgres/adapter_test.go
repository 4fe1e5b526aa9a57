package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leishu/pkg/adapter"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "leishu",
				Username: "reader",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=leishu sslmode=disable user=reader password=pass",
		},
		{
			name: "with custom sslmode",
			config: adapter.Config{
				Host:     "corpus.example.com",
				Port:     5432,
				Database: "corpus",
				Username: "admin",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=corpus.example.com port=5432 dbname=corpus sslmode=require user=admin",
		},
		{
			name: "defaults",
			config: adapter.Config{
				Database: "corpus",
			},
			expected: "host=localhost port=5432 dbname=corpus sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestNew(t *testing.T) {
	adp := New(nil)

	assert.NotNil(t, adp)
	assert.Nil(t, adp.DB, "DB should be nil before Connect")
	assert.False(t, adp.IsConnected())
	assert.Equal(t, "postgres", adp.DialectName())
	assert.Equal(t, "$1", adp.Dialect().FormatPlaceholder(1))
	assert.False(t, adp.Dialect().NativeFullText())
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	err := adp.Exec(ctx, "SELECT 1")
	require.ErrorIs(t, err, adapter.ErrNotConnected)

	_, err = adp.Acquire(ctx)
	require.ErrorIs(t, err, adapter.ErrNotConnected)

	assert.NoError(t, adp.Close())
}

func TestAdapter_Registry(t *testing.T) {
	factory, ok := adapter.Get("postgres")
	require.True(t, ok)

	pg, ok := factory(nil).(*Adapter)
	require.True(t, ok, "factory should return *Adapter")
	assert.Equal(t, "postgres", pg.DialectName())
}
