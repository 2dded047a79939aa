package service

import (
	"context"
	"time"

	"reconcile-web/internal/models"
)

// DocumentParser turns an uploaded statement file into raw line records.
// Implementations must return *UnparsableDocumentError for unrecognized
// formats.
type DocumentParser interface {
	Parse(filePath, originalFilename string) (*models.ParsedStatement, error)
	SupportedFormats() []models.BankFormat
}

// Categorizer assigns an advisory category suggestion to a line. A nil
// suggestion with nil error means "no suggestion".
type Categorizer interface {
	Suggest(businessID int, line *models.StatementLine) (*models.CategorySuggestion, error)
}

// LedgerPoster creates one transaction plus one balanced journal entry per
// posting. Per-line rejections must be *LedgerValidationError; any other
// error is treated as the ledger being unreachable.
type LedgerPoster interface {
	PostEntry(ctx context.Context, businessID int, posting models.LedgerPosting) (*models.LedgerReceipt, error)
}

// ImportLocker serializes importLines per upload.
type ImportLocker interface {
	Acquire(ctx context.Context, uploadID int) (bool, error)
	Release(ctx context.Context, uploadID int) error
}

// UploadStore is the persistence surface the services need for uploads.
// Implemented by repository.UploadRepository.
type UploadStore interface {
	Create(upload *models.StatementUpload) error
	GetByID(id int) (*models.StatementUpload, error)
	UpdateStatus(id int, status string) error
	SetFailed(id int, errorMessage string) error
	UpdateMetadata(upload *models.StatementUpload) error
	UpdateCounters(upload *models.StatementUpload) error
	FindOverlapping(businessID int, accountNumber string, start, end time.Time) ([]models.StatementUpload, error)
}

// LineStore is the persistence surface the services need for lines.
// Implemented by repository.LineRepository.
type LineStore interface {
	BulkInsert(lines []models.StatementLine) error
	GetByID(id int64) (*models.StatementLine, error)
	GetByUploadID(uploadID int) ([]models.StatementLine, error)
	Update(line *models.StatementLine) error
	ImportedHashes(businessID int, hashes []string) (map[string]bool, error)
	CountByStatus(uploadID int) (map[string]int, error)
}

// BankAccountStore is the read-only bank account registry.
// Implemented by repository.BankAccountRepository.
type BankAccountStore interface {
	GetByID(businessID, id int) (*models.BankAccount, error)
	FindByAccountNumber(businessID int, accountNumber string) (*models.BankAccount, error)
}

// CategoryStore resolves categories and GL accounts for review and import.
// Implemented by repository.CategoryRepository.
type CategoryStore interface {
	GetCategory(businessID, id int) (*models.Category, error)
	GetGLAccount(id int) (*models.GLAccount, error)
}
