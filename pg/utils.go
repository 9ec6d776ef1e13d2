package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE values handled by Translate.
const (
	pgUniqueViolation     = "23505"
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgStringTooLong       = "22001"
)

func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	ok := errors.As(err, &pgErr)
	return pgErr, ok
}

// IsConflict reports a unique constraint violation anywhere in err's chain.
func IsConflict(err error) bool { return Code(err) == pgUniqueViolation }

// IsNotFound reports sql.ErrNoRows.
func IsNotFound(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// Code returns the SQLSTATE of err, or "" when err is not a server error.
func Code(err error) string {
	if pgErr, ok := asPgError(err); ok {
		return pgErr.Code
	}
	return ""
}

// ConstraintName returns the constraint a server error names, or "".
func ConstraintName(err error) string {
	if pgErr, ok := asPgError(err); ok {
		return pgErr.ConstraintName
	}
	return ""
}

// GetPgErrorDetails collects the rendered query and the non-empty server
// error fields under "pg.*" keys.
func GetPgErrorDetails(err error, query fmt.Stringer) errx.D {
	details := errx.D{}
	if q := queryString(query); q != "" {
		details["query"] = strings.ReplaceAll(q, `"`, "")
	}

	pgErr, ok := asPgError(err)
	if !ok {
		return details
	}
	for k, v := range map[string]string{
		"code":       pgErr.Code,
		"severity":   pgErr.Severity,
		"message":    pgErr.Message,
		"detail":     pgErr.Detail,
		"hint":       pgErr.Hint,
		"schema":     pgErr.SchemaName,
		"table":      pgErr.TableName,
		"column":     pgErr.ColumnName,
		"data_type":  pgErr.DataTypeName,
		"constraint": pgErr.ConstraintName,
	} {
		if v != "" {
			details["pg."+k] = v
		}
	}
	return details
}

// queryString renders query, returning "" for nil. bun panics rendering some
// incomplete queries; that panic is swallowed.
func queryString(query fmt.Stringer) (s string) {
	if query == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	return query.String()
}
