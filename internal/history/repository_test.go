// AngelaMos | 2026
// repository_test.go

package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockLedger(t *testing.T) (sqlmock.Sqlmock, Repository) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return mock, NewRepository(sqlx.NewDb(db, "sqlmock"))
}

func TestAppend(t *testing.T) {
	mock, repo := setupMockLedger(t)

	at := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	entry, err := NewEntry("acc-1", TargetTherapist, ActionApplied, Details{
		NewStatus:  "pending_approval",
		ReceiptRef: "r1.pdf",
	}, at)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO membership_history`).
		WithArgs(entry.ID, "acc-1", "THERAPIST", "applied", string(entry.Details), at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Append(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_Error(t *testing.T) {
	mock, repo := setupMockLedger(t)

	entry, err := NewEntry("acc-1", TargetClinic, ActionRejected, Details{}, time.Now())
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO membership_history`).
		WillReturnError(errors.New("connection reset"))

	err = repo.Append(context.Background(), entry)
	assert.ErrorContains(t, err, "append history")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListFor_NewestFirst(t *testing.T) {
	mock, repo := setupMockLedger(t)

	t1 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM membership_history`).
		WithArgs("acc-9", "CLINIC").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rows := sqlmock.NewRows([]string{
		"id", "target_id", "target_type", "action", "details", "action_date",
	}).
		AddRow("h2", "acc-9", "CLINIC", "approved", []byte(`{"newStatus":"live"}`), t2).
		AddRow("h1", "acc-9", "CLINIC", "applied", []byte(`{}`), t1)

	mock.ExpectQuery(`ORDER BY action_date DESC, id DESC`).
		WithArgs("acc-9", "CLINIC", 50, 0).
		WillReturnRows(rows)

	entries, total, err := repo.ListFor(context.Background(), "acc-9", TargetClinic, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, entries, 2)
	assert.Equal(t, "approved", entries[0].Action)
	assert.Equal(t, TargetClinic, entries[0].TargetType)

	d, err := entries[0].DecodeDetails()
	require.NoError(t, err)
	assert.Equal(t, "live", d.NewStatus)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListFor_Paging(t *testing.T) {
	mock, repo := setupMockLedger(t)

	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM membership_history`).
		WithArgs("acc-1", "THERAPIST", 200, 400).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "target_id", "target_type", "action", "details", "action_date",
		}))

	entries, _, err := repo.ListFor(
		context.Background(),
		"acc-1",
		TargetTherapist,
		ListParams{Page: 3, PageSize: 1000},
	)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParseTargetType(t *testing.T) {
	tt, err := ParseTargetType("CLINIC")
	require.NoError(t, err)
	assert.Equal(t, TargetClinic, tt)

	_, err = ParseTargetType("clinic")
	assert.Error(t, err)
}
