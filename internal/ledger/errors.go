package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/storage"
)

// Kind classifies ledger failures for callers.
type Kind string

const (
	// KindValidation means the request was malformed. Nothing was persisted.
	KindValidation Kind = "VALIDATION"
	// KindNotFound means the target is absent or not visible to the caller.
	KindNotFound Kind = "NOT_FOUND"
	// KindConflict means the target exists but its state forbids the action.
	KindConflict Kind = "CONFLICT"
	// KindPersistence means the transaction failed and was rolled back.
	// It is the only kind that is safe to retry.
	KindPersistence Kind = "PERSISTENCE"
)

// Error is a classified ledger error. The exported Err* values are sentinels;
// returned errors wrap them with detail, so compare with errors.Is.
type Error struct {
	Kind Kind
	Code string
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

// Retryable reports whether the failed operation may be retried as-is.
func (e *Error) Retryable() bool {
	return e.Kind == KindPersistence
}

var (
	ErrValidation     = &Error{Kind: KindValidation, Code: "VALIDATION", msg: "invalid request"}
	ErrNoMembers      = &Error{Kind: KindValidation, Code: "NO_MEMBERS", msg: "group has no joined members"}
	ErrGroupNotFound  = &Error{Kind: KindNotFound, Code: "GROUP_NOT_FOUND", msg: "group not found"}
	ErrMemberNotFound = &Error{Kind: KindNotFound, Code: "MEMBER_NOT_FOUND", msg: "member not found"}
	ErrInviteNotFound = &Error{Kind: KindNotFound, Code: "INVITE_NOT_FOUND", msg: "invite not found"}
	ErrSplitNotFound  = &Error{Kind: KindNotFound, Code: "SPLIT_NOT_FOUND", msg: "split not found"}
	ErrMemberExists   = &Error{Kind: KindConflict, Code: "MEMBER_EXISTS", msg: "member already exists in group"}
	ErrSplitSettled   = &Error{Kind: KindConflict, Code: "SPLIT_SETTLED", msg: "split already settled"}
	ErrGroupInactive  = &Error{Kind: KindConflict, Code: "GROUP_INACTIVE", msg: "group has been deleted"}
	ErrPersistence    = &Error{Kind: KindPersistence, Code: "PERSISTENCE", msg: "ledger storage failure"}
)

// KindOf returns the kind of a ledger error, or "" for foreign errors.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// CodeOf returns the code of a ledger error, or "" for foreign errors.
func CodeOf(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// splitPolicyErr maps calculator failures onto ledger errors.
func splitPolicyErr(err error) error {
	if errors.Is(err, calculator.ErrNoMembers) {
		return fmt.Errorf("%w: %w", ErrNoMembers, err)
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// classify leaves ledger errors untouched and marks anything else as a
// persistence failure. storage.ErrNotFound leaking out of a lookup is mapped
// to notFound.
func classify(err error, notFound *Error) error {
	if err == nil || KindOf(err) != "" {
		return err
	}
	if notFound != nil && errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %w", notFound, err)
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
