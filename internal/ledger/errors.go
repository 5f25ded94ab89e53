package ledger

import "errors"

// Kind classifies a request failure. Every error the ledger returns carries
// exactly one kind; callers map kinds to transport codes.
type Kind string

const (
	// KindInvalidInput marks malformed request fields or a delta that would
	// push occupancy below zero.
	KindInvalidInput Kind = "invalid_input"
	// KindLimitExceeded marks a policy cap: the student per-event bound or a
	// full room.
	KindLimitExceeded Kind = "limit_exceeded"
	// KindConflict marks a student event rejected because a class is in
	// session, or a schedule block that overlaps an existing one.
	KindConflict Kind = "conflict"
	// KindNotFound marks a missing room or schedule block.
	KindNotFound Kind = "not_found"
	// KindStoreUnavailable marks a storage fault. Not retried internally.
	KindStoreUnavailable Kind = "store_unavailable"
)

// Error is a classified ledger failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind from an error returned by the ledger. Anything
// unclassified is treated as a storage fault.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindStoreUnavailable
}

func invalidInput(msg string) error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func limitExceeded(msg string) error {
	return &Error{Kind: KindLimitExceeded, Message: msg}
}

func conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

func notFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func storeUnavailable(msg string, err error) error {
	return &Error{Kind: KindStoreUnavailable, Message: msg, Err: err}
}
