// AngelaMos | 2026
// core_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleError(t *testing.T) {
	err := fmt.Errorf("approve acc-1: %w", NewRuleError(ErrInvalidTransition, "cannot approve from %s", "draft"))

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "cannot approve from draft", RuleMessage(err))
	assert.Equal(t, "plain", RuleMessage(errors.New("plain")))
}

func TestJSONError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, TransitionError("an application is already pending review"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "INVALID_TRANSITION", body.Error.Code)
	assert.Equal(t, "an application is already pending review", body.Error.Message)
}

func TestJSONError_HidesUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, errors.New("pq: relation accounts does not exist"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "relation")
}

func TestPaginated(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []int{1, 2}, 2, 2, 5)

	var body Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Meta)
	assert.Equal(t, 3, body.Meta.TotalPages)
	assert.Equal(t, 5, body.Meta.Total)
}

func TestFormatValidationError(t *testing.T) {
	type req struct {
		Status string `validate:"required,oneof=draft live"`
		Notes  string `validate:"max=3"`
	}

	err := validator.New().Struct(req{Status: "archived", Notes: "toolong"})
	assert.Equal(t,
		"status must be one of [draft live]; notes must be at most 3 characters",
		FormatValidationError(err),
	)
	assert.Equal(t, "invalid request", FormatValidationError(errors.New("x")))
}

func TestMigrationFiles(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init.down.sql", "000001_init.up.sql"}, files)
}
