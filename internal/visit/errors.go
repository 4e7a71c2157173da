package visit

import "errors"

// Kind classifies a submission failure.
type Kind int

const (
	// KindValidation: the payload is incomplete or malformed. No I/O was done.
	KindValidation Kind = iota + 1
	// KindConnection: no database connection could be acquired.
	KindConnection
	// KindTransaction: begin or commit failed; the outcome is indeterminate.
	KindTransaction
	// KindQuery: a delete or insert failed and the transaction was rolled back.
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConnection:
		return "connection"
	case KindTransaction:
		return "transaction"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Error is a classified submission failure. Message is safe to show clients;
// Err carries the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a submission error, or 0 if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Retryable reports whether the client may resend the same submission.
// Rolled-back queries and connection failures leave no partial state.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConnection, KindQuery:
		return true
	default:
		return false
	}
}
