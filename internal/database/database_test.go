package database

import (
	"bytes"
	"database/sql"
	"errors"
	"testing"

	"crudview/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crudviewDB() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:               "db",
		Port:               "5432",
		User:               "crudview",
		Password:           "s3cret",
		Name:               "crudview",
		SSLMode:            "disable",
		MaxOpenConns:       10,
		MaxIdleConns:       5,
		ConnMaxLifetimeSec: 300,
	}
}

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.DatabaseConfig)
		want    string
		missing string
	}{
		{name: "full", want: "postgres://crudview:s3cret@db:5432/crudview?sslmode=disable"},
		{
			name:   "no password",
			mutate: func(c *config.DatabaseConfig) { c.Password = ""; c.SSLMode = "require" },
			want:   "postgres://crudview@db:5432/crudview?sslmode=require",
		},
		{
			name:   "no sslmode",
			mutate: func(c *config.DatabaseConfig) { c.SSLMode = "" },
			want:   "postgres://crudview:s3cret@db:5432/crudview",
		},
		{
			name:   "password is escaped",
			mutate: func(c *config.DatabaseConfig) { c.Password = "p@ss/word" },
			want:   "postgres://crudview:p%40ss%2Fword@db:5432/crudview?sslmode=disable",
		},
		{name: "missing host", mutate: func(c *config.DatabaseConfig) { c.Host = "" }, missing: "DB_HOST"},
		{name: "missing port", mutate: func(c *config.DatabaseConfig) { c.Port = "" }, missing: "DB_PORT"},
		{
			name:    "missing user and name",
			mutate:  func(c *config.DatabaseConfig) { c.User = ""; c.Name = "" },
			missing: "DB_USER, DB_NAME",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := crudviewDB()
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			got, err := BuildPostgresDSN(c)
			if tt.missing != "" {
				assert.ErrorIs(t, err, ErrIncompleteConfig)
				assert.Contains(t, err.Error(), tt.missing)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// stubOpen makes NewPostgres use db instead of dialling.
func stubOpen(t *testing.T, db *sql.DB, err error) {
	t.Helper()
	orig := sqlOpen
	sqlOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
		return db, err
	}
	t.Cleanup(func() { sqlOpen = orig })
}

func TestNewPostgres(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		stubOpen(t, db, nil)
		mock.ExpectPing()

		var logBuf bytes.Buffer
		gotDB, err := NewPostgres(crudviewDB(), zerolog.New(&logBuf))
		require.NoError(t, err)
		assert.Same(t, db, gotDB)
		assert.Equal(t, 10, gotDB.Stats().MaxOpenConnections)
		assert.Contains(t, logBuf.String(), `"event":"db_connected"`)
		assert.NotContains(t, logBuf.String(), "s3cret")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open error", func(t *testing.T) {
		stubOpen(t, nil, errors.New("open error"))

		gotDB, err := NewPostgres(crudviewDB(), zerolog.Nop())
		assert.ErrorContains(t, err, "sql open: open error")
		assert.Nil(t, gotDB)
	})

	t.Run("ping error closes the pool", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)
		mock.ExpectPing().WillReturnError(errors.New("ping failed"))
		mock.ExpectClose()

		gotDB, err := NewPostgres(crudviewDB(), zerolog.Nop())
		assert.ErrorContains(t, err, "db ping: ping failed")
		assert.Nil(t, gotDB)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("incomplete config", func(t *testing.T) {
		gotDB, err := NewPostgres(config.DatabaseConfig{}, zerolog.Nop())
		assert.ErrorIs(t, err, ErrIncompleteConfig)
		assert.Nil(t, gotDB)
	})
}
