package pg

import (
	"errors"
	"fmt"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rise-and-shine/blocks/uow"
)

// Codes reported for constraint failures that have no entry in the conflict map.
const (
	CodeUniqueViolation     = "UNIQUE_VIOLATION"
	CodeRequiredValue       = "REQUIRED_VALUE_MISSING"
	CodeReferenceNotFound   = "REFERENCE_NOT_FOUND"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeValueTooLong        = "VALUE_TOO_LONG"
)

// ConflictCodes maps constraint names to domain error codes,
// e.g. "users_email_key" to "EMAIL_ALREADY_EXISTS".
type ConflictCodes map[string]string

func (c ConflictCodes) lookup(constraint, fallback string) string {
	if code, ok := c[constraint]; ok && code != "" {
		return code
	}
	return fallback
}

// Translate turns a PostgreSQL constraint failure into a typed errx error.
// Unique violations become conflicts; not-null, foreign key, check and length
// violations become validation failures. Every other error is wrapped unchanged
// with the query details attached.
func Translate(err error, codes ConflictCodes, query fmt.Stringer) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return errx.Wrap(err, errx.WithDetails(GetPgErrorDetails(err, query)))
	}

	details := GetPgErrorDetails(err, query)

	switch pgErr.Code {
	case pgUniqueViolation:
		return errx.New(
			fmt.Sprintf("conflict on %s", pgErr.ConstraintName),
			errx.WithType(errx.T_Conflict),
			errx.WithCode(codes.lookup(pgErr.ConstraintName, CodeUniqueViolation)),
			errx.WithDetails(details),
		)
	case pgNotNullViolation:
		return validation(codes.lookup(pgErr.ConstraintName, CodeRequiredValue), pgErr, "is required", details)
	case pgForeignKeyViolation:
		return validation(codes.lookup(pgErr.ConstraintName, CodeReferenceNotFound), pgErr, "references a missing record", details)
	case pgCheckViolation:
		return validation(codes.lookup(pgErr.ConstraintName, CodeConstraintViolation), pgErr, "is invalid", details)
	case pgStringTooLong:
		return validation(codes.lookup(pgErr.ConstraintName, CodeValueTooLong), pgErr, "is too long", details)
	}

	return errx.Wrap(err, errx.WithDetails(details))
}

func validation(code string, pgErr *pgconn.PgError, problem string, details errx.D) error {
	if pgErr.ColumnName == "" {
		return errx.New(pgErr.Message,
			errx.WithType(errx.T_Validation),
			errx.WithCode(code),
			errx.WithDetails(details),
		)
	}
	return errx.New(pgErr.Message,
		errx.WithType(errx.T_Validation),
		errx.WithCode(code),
		errx.WithDetails(details),
		errx.WithFields(errx.M{pgErr.ColumnName: problem}),
	)
}

// ErrorTranslator adapts Translate to a unit of work so that failures from
// hand-written operations are typed the same way as repository ones.
func ErrorTranslator(codes ConflictCodes) uow.ErrorTranslator {
	return func(err error) error {
		if Code(err) == "" {
			return err
		}
		return Translate(err, codes, nil)
	}
}
