package migration

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectLedger(mock sqlmock.Sqlmock, applied ...string) {
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"name"})
	for _, name := range applied {
		rows.AddRow(name)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM schema_migrations")).WillReturnRows(rows)
}

func TestEnsureMigrated_AppliesPendingSteps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectLedger(mock, steps[0].Name)
	for _, step := range steps[1:] {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (name) VALUES ($1)")).
			WithArgs(step.Name).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	var buf bytes.Buffer
	err = EnsureMigrated(context.Background(), db, zerolog.New(&buf))

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, buf.String(), `"event":"db_migration_success"`)
	assert.Contains(t, buf.String(), `"applied_steps":3`)
}

func TestEnsureMigrated_SkipsWhenUpToDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	expectLedger(mock, names...)

	var buf bytes.Buffer
	err = EnsureMigrated(context.Background(), db, zerolog.New(&buf))

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, buf.String(), `"event":"db_migration_skip"`)
}

func TestEnsureMigrated_StepFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectLedger(mock)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(steps[0].SQL)).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err = EnsureMigrated(context.Background(), db, zerolog.Nop())

	assert.EqualError(t, err, "migration step create_table_bookmarks failed: boom")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureMigrated_LedgerFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnError(errors.New("denied"))

	err = EnsureMigrated(context.Background(), db, zerolog.Nop())
	assert.ErrorContains(t, err, "failed to create migration ledger: denied")
}
