package models

import "time"

// RawLine is one transaction row as produced by a statement parser, before
// hashing, duplicate detection and categorization.
type RawLine struct {
	LineNumber       int
	TransactionDate  time.Time
	ValueDate        *time.Time
	Description      string
	Reference        *string
	TransactionType  string
	AmountKobo       int64
	BalanceAfterKobo *int64
}

// ParsedStatement is the parser collaborator's output for one document.
type ParsedStatement struct {
	BankName      *string
	StartDate     *time.Time
	EndDate       *time.Time
	AccountNumber *string
	AccountName   *string
	Lines         []RawLine
}

// BankFormat describes one supported statement format, surfaced to the UI.
type BankFormat struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

// CategorySuggestion is the categorization engine's advisory answer for a
// line. It is never committed without a human decision.
type CategorySuggestion struct {
	CategoryID   int     `json:"category_id"`
	CategoryName string  `json:"category_name"`
	CategoryCode string  `json:"category_code"`
	Confidence   float64 `json:"confidence"`
}

// LedgerPosting is the request to the ledger engine for one statement line.
type LedgerPosting struct {
	AccountCode string    `json:"account_code"`
	AmountKobo  int64     `json:"amount_kobo"`
	Direction   string    `json:"direction"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	ReferenceID string    `json:"reference_id"`
}

// LedgerReceipt identifies the transaction and balanced journal entry the
// ledger engine created for a posting.
type LedgerReceipt struct {
	TransactionID  string `json:"transaction_id"`
	JournalEntryID string `json:"journal_entry_id"`
	JournalNumber  string `json:"journal_number"`
}

// ImportSummary reports one importLines call. LinesImported counts only
// lines posted by this call, so a repeated call reports zero.
type ImportSummary struct {
	TotalLines     int    `json:"total_lines"`
	LinesImported  int    `json:"lines_imported"`
	LinesSkipped   int    `json:"lines_skipped"`
	LinesDuplicate int    `json:"lines_duplicate"`
	LinesError     int    `json:"lines_error"`
	Message        string `json:"message"`
}
