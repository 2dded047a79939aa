package models

import "time"

// Upload lifecycle statuses. Transitions are enforced by the lifecycle
// service; no state may be skipped and terminal states are final.
const (
	UploadStatusUploading = "uploading"
	UploadStatusParsing   = "parsing"
	UploadStatusParsed    = "parsed"
	UploadStatusImporting = "importing"
	UploadStatusCompleted = "completed"
	UploadStatusFailed    = "failed"
	UploadStatusCancelled = "cancelled"
)

type StatementUpload struct {
	ID               int    `db:"id" json:"id"`
	UploadCode       string `db:"upload_code" json:"upload_code"`
	BusinessID       int    `db:"business_id" json:"business_id"`
	UserID           int    `db:"user_id" json:"user_id"`
	OriginalFilename string `db:"original_filename" json:"original_filename"`
	FilePath         string `db:"file_path" json:"-"`
	FileSizeBytes    int64  `db:"file_size_bytes" json:"file_size_bytes"`
	Status           string `db:"status" json:"status"`
	ErrorMessage     string `db:"error_message" json:"error_message"`

	// Metadata detected by the parser, read-only to the pipeline.
	BankName           *string    `db:"bank_name" json:"bank_name"`
	StatementStartDate *time.Time `db:"statement_start_date" json:"statement_start_date"`
	StatementEndDate   *time.Time `db:"statement_end_date" json:"statement_end_date"`
	AccountNumber      *string    `db:"account_number" json:"account_number"`
	AccountName        *string    `db:"account_name" json:"account_name"`

	// Optional link to a reconciled bank account record.
	BankAccountID *int `db:"bank_account_id" json:"bank_account_id"`

	// Aggregate counters, recomputed from line statuses after parse/import.
	TotalLinesParsed int `db:"total_lines_parsed" json:"total_lines_parsed"`
	LinesImported    int `db:"lines_imported" json:"lines_imported"`
	LinesSkipped     int `db:"lines_skipped" json:"lines_skipped"`
	LinesDuplicate   int `db:"lines_duplicate" json:"lines_duplicate"`
	LinesPending     int `db:"lines_pending" json:"lines_pending"`
	LinesApproved    int `db:"lines_approved" json:"lines_approved"`
	LinesError       int `db:"lines_error" json:"lines_error"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the upload can no longer change state.
func (u *StatementUpload) IsTerminal() bool {
	switch u.Status {
	case UploadStatusCompleted, UploadStatusFailed, UploadStatusCancelled:
		return true
	}
	return false
}

// OverlapResult is the advisory answer of the overlap pre-flight check.
type OverlapResult struct {
	HasOverlap         bool              `json:"has_overlap"`
	OverlappingCount   int               `json:"overlapping_count"`
	OverlappingUploads []StatementUpload `json:"overlapping_uploads"`
}
