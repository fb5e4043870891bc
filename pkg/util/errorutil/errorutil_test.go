package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{name: "domain error passthrough", err: NewForbidden("nope"), wantCode: "FORBIDDEN", wantStatus: http.StatusForbidden},
		{name: "wrapped domain error", err: fmt.Errorf("edit: %w", NewValidationError("bad", nil)), wantCode: "VALIDATION_FAILED", wantStatus: http.StatusBadRequest},
		{name: "no rows", err: fmt.Errorf("get update: %w", pgx.ErrNoRows), wantCode: "NOT_FOUND", wantStatus: http.StatusNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505", ConstraintName: "team_members_team_employee_key"}, wantCode: "CONFLICT", wantStatus: http.StatusConflict},
		{name: "check violation", err: &pgconn.PgError{Code: "23514", ConstraintName: "chk_updates_blocker_pair"}, wantCode: "VALIDATION_FAILED", wantStatus: http.StatusBadRequest},
		{name: "fiber error", err: fiber.NewError(http.StatusForbidden, "insufficient role"), wantCode: "FORBIDDEN", wantStatus: http.StatusForbidden},
		{name: "fiber teapot", err: fiber.NewError(http.StatusTeapot, "tea"), wantCode: "I'm a teapot", wantStatus: http.StatusTeapot},
		{name: "unknown", err: errors.New("boom"), wantCode: "INTERNAL_ERROR", wantStatus: http.StatusInternalServerError},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got := ToDomainError(testCase.err)
			assert.Equal(t, testCase.wantCode, got.Code)
			assert.Equal(t, testCase.wantStatus, got.HTTPStatus)
		})
	}
}

func TestMapErrorNil(t *testing.T) {
	assert.NoError(t, MapError(nil))
	assert.Nil(t, ToDomainError(nil))
}
