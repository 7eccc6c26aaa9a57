package services

import (
	"errors"
	"fmt"
)

// ValidationError rejects bad reviewer input before anything is written.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// StateConflictError rejects a lifecycle transition that is not legal from the
// queue item's current status, including the losing side of a concurrent write.
type StateConflictError struct {
	CurrentStatus string
	Msg           string
}

func (e *StateConflictError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s (current status: %s)", e.Msg, e.CurrentStatus)
	}
	return fmt.Sprintf("invalid transition from status %s", e.CurrentStatus)
}

// UnknownIntentError: the queue item's intent has no production mapping.
type UnknownIntentError struct {
	Intent string
}

func (e *UnknownIntentError) Error() string {
	return fmt.Sprintf("no production mapping for intent %q", e.Intent)
}

// MissingSlotError: a lookup slot required by the intent mapping is absent.
type MissingSlotError struct {
	Intent string
	Slot   string
}

func (e *MissingSlotError) Error() string {
	return fmt.Sprintf("intent %q is missing lookup slot %q", e.Intent, e.Slot)
}

// RecordNotFoundError: the natural key matched no production row.
type RecordNotFoundError struct {
	Target string
	Lookup map[string]string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("no production record in %s for lookup %v", e.Target, e.Lookup)
}

// AmbiguousRecordError: the natural key matched more than one production row.
// This is a data integrity fault; reconciliation never picks one of them.
type AmbiguousRecordError struct {
	Target  string
	Matches int64
	Lookup  map[string]string
}

func (e *AmbiguousRecordError) Error() string {
	return fmt.Sprintf("%d production records in %s match lookup %v", e.Matches, e.Target, e.Lookup)
}

// ReconciliationError wraps a storage failure while applying production writes.
type ReconciliationError struct {
	Op  string
	Err error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation %s failed: %v", e.Op, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a storage failure in the review store itself; nothing
// was committed and the whole action can be retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsReconciliationFailure reports whether err belongs to the reconciliation
// taxonomy, i.e. the review itself was recorded but production was not updated.
func IsReconciliationFailure(err error) bool {
	var unknownIntent *UnknownIntentError
	var missingSlot *MissingSlotError
	var notFound *RecordNotFoundError
	var ambiguous *AmbiguousRecordError
	var recon *ReconciliationError
	return errors.As(err, &unknownIntent) ||
		errors.As(err, &missingSlot) ||
		errors.As(err, &notFound) ||
		errors.As(err, &ambiguous) ||
		errors.As(err, &recon)
}
