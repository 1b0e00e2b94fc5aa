package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestToDomainErrorPassesThrough(t *testing.T) {
	orig := NewAlreadyRegistered("jane@paramount.co.ke")
	mapped := ToDomainError(fmt.Errorf("register: %w", orig))
	assert.Equal(t, "ALREADY_REGISTERED", mapped.Code)
	assert.Equal(t, http.StatusConflict, mapped.HTTPStatus)
}

func TestToDomainErrorNoRows(t *testing.T) {
	mapped := ToDomainError(sql.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", mapped.Code)
}

func TestToDomainErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "staff_accounts_email_key"}
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", pgErr)))

	mapped := ToDomainError(pgErr)
	assert.Equal(t, "CONFLICT", mapped.Code)
	assert.Equal(t, http.StatusConflict, mapped.HTTPStatus)
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	mapped := ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
}
