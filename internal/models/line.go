package models

import "time"

// Statement line statuses. "imported" and "error" may only be set by the
// import committer, never by a direct review update.
const (
	LineStatusPending   = "pending"
	LineStatusApproved  = "approved"
	LineStatusSkipped   = "skipped"
	LineStatusImported  = "imported"
	LineStatusDuplicate = "duplicate"
	LineStatusError     = "error"
)

// Transaction direction as seen from the bank account.
const (
	TxnTypeCredit = "credit" // inflow
	TxnTypeDebit  = "debit"  // outflow
)

type StatementLine struct {
	ID         int64 `db:"id" json:"id"`
	UploadID   int   `db:"upload_id" json:"upload_id"`
	BusinessID int   `db:"business_id" json:"business_id"`

	// Immutable facts from parsing. LineNumber is the 1-based position in
	// the statement and the stable ordering key.
	LineNumber       int        `db:"line_number" json:"line_number"`
	TransactionDate  time.Time  `db:"transaction_date" json:"transaction_date"`
	ValueDate        *time.Time `db:"value_date" json:"value_date"`
	Description      string     `db:"description" json:"description"`
	Reference        *string    `db:"reference" json:"reference"`
	TransactionType  string     `db:"transaction_type" json:"transaction_type"`
	AmountKobo       int64      `db:"amount_kobo" json:"amount_kobo"`
	BalanceAfterKobo *int64     `db:"balance_after_kobo" json:"balance_after_kobo"`

	// Computed once at parse time, never recomputed.
	TransactionHash string `db:"transaction_hash" json:"transaction_hash"`
	IsDuplicate     bool   `db:"is_duplicate" json:"is_duplicate"`

	// Advisory suggestion from the categorization engine.
	SuggestedCategoryID   *int     `db:"suggested_category_id" json:"suggested_category_id"`
	SuggestedCategoryName *string  `db:"suggested_category_name" json:"suggested_category_name"`
	SuggestedCategoryCode *string  `db:"suggested_category_code" json:"suggested_category_code"`
	CategoryConfidence    *float64 `db:"category_confidence" json:"category_confidence"`

	// Human decision, kept separate from the suggestion.
	SelectedCategoryID *int    `db:"selected_category_id" json:"selected_category_id"`
	ManualGLAccountID  *int    `db:"manual_gl_account_id" json:"manual_gl_account_id"`
	UserNotes          *string `db:"user_notes" json:"user_notes"`

	// GL preview: the account this line would post to if imported now.
	SuggestedGLAccountCode *string `db:"suggested_gl_account_code" json:"suggested_gl_account_code"`
	SuggestedGLAccountName *string `db:"suggested_gl_account_name" json:"suggested_gl_account_name"`
	SuggestedGLAccountFlow *string `db:"suggested_gl_account_flow" json:"suggested_gl_account_flow"`

	Status       string  `db:"status" json:"status"`
	ErrorMessage *string `db:"error_message" json:"error_message"`

	// Write-once linkage, set only on a successful ledger commit.
	ImportedTransactionID  *string `db:"imported_transaction_id" json:"imported_transaction_id"`
	ImportedJournalEntryID *string `db:"imported_journal_entry_id" json:"imported_journal_entry_id"`
	ImportedJournalNumber  *string `db:"imported_journal_number" json:"imported_journal_number"`
	ImportedGLAccountCode  *string `db:"imported_gl_account_code" json:"imported_gl_account_code"`
	ImportedGLAccountName  *string `db:"imported_gl_account_name" json:"imported_gl_account_name"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LineUpdateRequest is a review-time update for a single line.
type LineUpdateRequest struct {
	Status             *string `json:"status"`
	SelectedCategoryID *int    `json:"selected_category_id"`
	ManualGLAccountID  *int    `json:"manual_gl_account_id"`
	UserNotes          *string `json:"user_notes"`
	// ConfirmDuplicate must be set to approve a line flagged as duplicate.
	ConfirmDuplicate bool `json:"confirm_duplicate"`
}

type BulkLineUpdateRequest struct {
	LineIDs            []int64 `json:"line_ids"`
	Status             *string `json:"status"`
	SelectedCategoryID *int    `json:"selected_category_id"`
	ManualGLAccountID  *int    `json:"manual_gl_account_id"`
	ConfirmDuplicate   bool    `json:"confirm_duplicate"`
}

// BulkLineError reports a single failed line in a bulk update. The rest of
// the batch is unaffected.
type BulkLineError struct {
	LineID int64  `json:"line_id"`
	Error  string `json:"error"`
}

type BulkLineUpdateResult struct {
	Updated []StatementLine `json:"updated"`
	Errors  []BulkLineError `json:"errors"`
}
