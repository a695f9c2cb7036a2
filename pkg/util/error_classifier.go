package util

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes we care about.
const (
	pgUndefinedTable        = "42P01"
	pgInsufficientPrivilege = "42501"
	pgUniqueViolation       = "23505"
	pgForeignKeyViolation   = "23503"
	pgCheckViolation        = "23514"
)

// ClassifyStoreError maps a backend error to an error type and a user-facing
// message. Returns: (errorType, userMessage, httpStatus).
func ClassifyStoreError(err error) (string, string, int) {
	if err == nil {
		return "", "", http.StatusOK
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return "not_found", "the requested record does not exist", http.StatusNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable:
			return "table_missing", "the data store is not set up yet", http.StatusServiceUnavailable
		case pgInsufficientPrivilege:
			return "permission_denied", "you do not have access to this record", http.StatusForbidden
		case pgUniqueViolation:
			return "duplicate", "a record with the same value already exists", http.StatusConflict
		case pgForeignKeyViolation:
			return "constraint_violation", "the record references a row that no longer exists", http.StatusConflict
		case pgCheckViolation:
			return "constraint_violation", "the record violates a data constraint", http.StatusBadRequest
		}
	}

	errStr := err.Error()

	// Drivers that do not surface pgconn codes still mention the condition.
	if strings.Contains(errStr, "does not exist") && strings.Contains(errStr, "relation") {
		return "table_missing", "the data store is not set up yet", http.StatusServiceUnavailable
	}
	if strings.Contains(errStr, "duplicate key") {
		return "duplicate", "a record with the same value already exists", http.StatusConflict
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "network_timeout", "the data store did not respond in time", http.StatusGatewayTimeout
		}
		return "network_error", "could not reach the data store", http.StatusBadGateway
	}

	return "unknown_error", "an unexpected error occurred", http.StatusInternalServerError
}

// IsTableMissing reports whether the error means the backing table is absent.
// Listing operations treat this as an empty result rather than a failure.
func IsTableMissing(err error) bool {
	errType, _, _ := ClassifyStoreError(err)
	return errType == "table_missing"
}

// IsUniqueViolation reports whether the error is a unique constraint conflict.
func IsUniqueViolation(err error) bool {
	errType, _, _ := ClassifyStoreError(err)
	return errType == "duplicate"
}
