package uuid

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrNotFound is returned when the id has no row, or when a kind
	// requirement is unmet (a page without revisions, a comment thread
	// without an anchor object).
	ErrNotFound = errors.New("uuid not found")

	// ErrInvalidDiscriminator marks a stored tag outside the closed set.
	ErrInvalidDiscriminator = errors.New("invalid discriminator")

	// ErrAncestorCycle and ErrAncestorDepth are wrapped in *StoreError when
	// an ancestor walk loops or exceeds the configured depth.
	ErrAncestorCycle = errors.New("ancestor cycle")
	ErrAncestorDepth = errors.New("ancestor chain too deep")

	// ErrNilTx is returned by ResolveTx when it is handed no transaction.
	ErrNilTx = errors.New("nil transaction")

	errMissingAnchor = fmt.Errorf("comment thread has no anchor object: %w", ErrNotFound)
)

// StoreError wraps every failure of the underlying store that is not a
// domain outcome.  Code carries the MySQL error number when there is one.
type StoreError struct {
	Op   string
	ID   int
	Code uint16
	Err  error
}

func (e *StoreError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s %d: mysql %d: %v", e.Op, e.ID, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %d: %v", e.Op, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// notFound translates the store's "no row" into ErrNotFound.  Use it only on
// the primary-row fetch of a kind.
func notFound(op string, id int, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", op, id, ErrNotFound)
	}
	return storeErr(op, id, err)
}

// storeErr wraps err in *StoreError unless it already is a domain outcome.
func storeErr(op string, id int, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidDiscriminator) || errors.As(err, &se) {
		return err
	}
	out := &StoreError{Op: op, ID: id, Err: err}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		out.Code = me.Number
	}
	return out
}
