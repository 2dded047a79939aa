package service

import "fmt"

// ValidationError reports bad input at the boundary (empty file, unsupported
// content type, missing fields).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError reports an illegal upload or line state change
// requested by a caller.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("invalid %s transition %s -> %s", e.Entity, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ConcurrentImportError reports a second import attempt while one is already
// running for the same upload.
type ConcurrentImportError struct {
	UploadID int
}

func (e *ConcurrentImportError) Error() string {
	return fmt.Sprintf("an import is already running for upload %d", e.UploadID)
}

// UnparsableDocumentError is surfaced by the parser collaborator when the
// document format is not recognized. The upload is failed.
type UnparsableDocumentError struct {
	Reason string
}

func (e *UnparsableDocumentError) Error() string {
	return "unparsable document: " + e.Reason
}

// LedgerValidationError is a per-line rejection from the ledger engine
// (closed period, invalid account). The import committer converts it into a
// line-level error and continues with the batch.
type LedgerValidationError struct {
	Reason string
}

func (e *LedgerValidationError) Error() string {
	return "ledger rejected posting: " + e.Reason
}
