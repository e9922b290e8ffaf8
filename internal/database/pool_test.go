package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad connection", driver.ErrBadConn, true},
		{"refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"syntax", errors.New(`pq: syntax error at or near "SELEC"`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "h", Port: 5433, User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5433 user=u password=p dbname=d sslmode=disable", cfg.DSN())
}

func TestRunMigrationsUnknownSchema(t *testing.T) {
	db := &DB{}
	err := db.RunMigrations(Schema("payments"))
	assert.Error(t, err)
}

func TestHealthCheckUnreachable(t *testing.T) {
	raw, err := sql.Open("postgres", "host=127.0.0.1 port=1 user=u dbname=d sslmode=disable connect_timeout=1")
	require.NoError(t, err)
	db := &DB{DB: raw}
	db.SetMaxOpenConns(4)
	t.Cleanup(func() { db.Close() })

	hc := db.HealthCheck(context.Background())
	assert.Equal(t, "unhealthy", hc.Status)
	assert.NotEmpty(t, hc.Error)
	assert.Equal(t, 4, hc.Stats.MaxOpenConns)
	assert.Zero(t, hc.Stats.InUse)
}
