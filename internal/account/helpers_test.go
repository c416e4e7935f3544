// AngelaMos | 2026
// helpers_test.go

package account

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var accountCols = []string{
	"id", "entity_type", "owner_user_id", "status", "is_verified", "admin_notes",
	"application_date", "payment_receipt_ref", "status_message", "renewal_date",
	"tier_name", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

func accountRow(a *Account) *sqlmock.Rows {
	var notes, appDate, renewal driver.Value
	if a.AdminNotes != nil {
		notes = *a.AdminNotes
	}
	if a.ApplicationDate != nil {
		appDate = *a.ApplicationDate
	}
	if a.RenewalDate != nil {
		renewal = *a.RenewalDate
	}

	return sqlmock.NewRows(accountCols).AddRow(
		a.ID, string(a.Type), a.OwnerUserID, string(a.Status), a.IsVerified, notes,
		appDate, a.PaymentReceiptRef, a.StatusMessage, renewal,
		a.TierName, a.CreatedAt, a.UpdatedAt,
	)
}

func updatedAtRow(at time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"updated_at"}).AddRow(at)
}

// captureString records the string argument it is matched against.
type captureString struct {
	into *string
}

func (c captureString) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		*c.into = s
	}
	return ok
}

// captureTime records a time argument, or nil.
type captureTime struct {
	into **time.Time
}

func (c captureTime) Match(v driver.Value) bool {
	switch tv := v.(type) {
	case nil:
		*c.into = nil
		return true
	case time.Time:
		*c.into = &tv
		return true
	}
	return false
}
