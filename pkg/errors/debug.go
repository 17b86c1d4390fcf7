package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorDump is the loggable view of an error chain. Postgres driver detail
// is lifted out of pgconn so log queries can filter on constraint or table.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// Dump flattens an error chain for structured logging.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	dump := ErrorDump{TopMessage: err.Error()}
	if typed := As(err); typed != nil {
		dump.Code = typed.Code()
	}
	for cause := err; cause != nil; cause = errors.Unwrap(cause) {
		dump.Chain = append(dump.Chain, fmt.Sprintf("%T: %v", cause, cause))
	}
	dump.attachPG(err)
	return dump
}

func (d *ErrorDump) attachPG(err error) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return
	}
	d.PGCode = pgErr.Code
	d.PGConstraint = pgErr.ConstraintName
	d.PGTable = pgErr.TableName
	d.PGColumn = pgErr.ColumnName
	d.PGDetail = pgErr.Detail
	d.PGMessage = pgErr.Message
}
