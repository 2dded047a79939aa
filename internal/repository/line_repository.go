package repository

import (
	"reconcile-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type LineRepository struct {
	db *sqlx.DB
}

func NewLineRepository(db *sqlx.DB) *LineRepository {
	return &LineRepository{db: db}
}

const lineInsertQuery = `INSERT INTO statement_lines (upload_id, business_id, line_number,
	transaction_date, value_date, description, reference, transaction_type,
	amount_kobo, balance_after_kobo, transaction_hash, is_duplicate,
	suggested_category_id, suggested_category_name, suggested_category_code, category_confidence,
	suggested_gl_account_code, suggested_gl_account_name, suggested_gl_account_flow, status)
	VALUES (:upload_id, :business_id, :line_number,
	:transaction_date, :value_date, :description, :reference, :transaction_type,
	:amount_kobo, :balance_after_kobo, :transaction_hash, :is_duplicate,
	:suggested_category_id, :suggested_category_name, :suggested_category_code, :category_confidence,
	:suggested_gl_account_code, :suggested_gl_account_name, :suggested_gl_account_flow, :status)`

func (r *LineRepository) BulkInsert(lines []models.StatementLine) error {
	if len(lines) == 0 {
		return nil
	}
	_, err := r.db.NamedExec(lineInsertQuery, lines)
	return err
}

func (r *LineRepository) GetByID(id int64) (*models.StatementLine, error) {
	var line models.StatementLine
	query := "SELECT * FROM statement_lines WHERE id = ? LIMIT 1"
	err := r.db.Get(&line, query, id)
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// GetByUploadID returns all lines of an upload in statement order.
func (r *LineRepository) GetByUploadID(uploadID int) ([]models.StatementLine, error) {
	var lines []models.StatementLine
	query := "SELECT * FROM statement_lines WHERE upload_id = ? ORDER BY line_number"
	err := r.db.Select(&lines, query, uploadID)
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *LineRepository) GetPageByUploadID(uploadID, limit, offset int) ([]models.StatementLine, int, error) {
	var lines []models.StatementLine
	var total int

	countQuery := "SELECT COUNT(*) FROM statement_lines WHERE upload_id = ?"
	if err := r.db.Get(&total, countQuery, uploadID); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM statement_lines WHERE upload_id = ? ORDER BY line_number LIMIT ? OFFSET ?"
	if err := r.db.Select(&lines, query, uploadID, limit, offset); err != nil {
		return nil, 0, err
	}
	return lines, total, nil
}

// GetErrorsByUploadID returns only the lines that failed ledger posting,
// with their reasons, for the retry-failed-lines review.
func (r *LineRepository) GetErrorsByUploadID(uploadID int) ([]models.StatementLine, error) {
	var lines []models.StatementLine
	query := "SELECT * FROM statement_lines WHERE upload_id = ? AND status = ? ORDER BY line_number"
	err := r.db.Select(&lines, query, uploadID, models.LineStatusError)
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Update persists the full review/import state of one line in a single
// write, keeping status and GL preview changes atomic per line.
func (r *LineRepository) Update(line *models.StatementLine) error {
	query := `UPDATE statement_lines SET status = :status,
	          selected_category_id = :selected_category_id, manual_gl_account_id = :manual_gl_account_id,
	          user_notes = :user_notes,
	          suggested_gl_account_code = :suggested_gl_account_code,
	          suggested_gl_account_name = :suggested_gl_account_name,
	          suggested_gl_account_flow = :suggested_gl_account_flow,
	          error_message = :error_message,
	          imported_transaction_id = :imported_transaction_id,
	          imported_journal_entry_id = :imported_journal_entry_id,
	          imported_journal_number = :imported_journal_number,
	          imported_gl_account_code = :imported_gl_account_code,
	          imported_gl_account_name = :imported_gl_account_name,
	          updated_at = NOW()
	          WHERE id = :id`
	_, err := r.db.NamedExec(query, line)
	return err
}

// ImportedHashes reports which of the given hashes already belong to an
// imported line of the business. The lookup is tenant-scoped and backed by
// the (business_id, transaction_hash, status) index.
func (r *LineRepository) ImportedHashes(businessID int, hashes []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(hashes) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(
		`SELECT DISTINCT transaction_hash FROM statement_lines
		 WHERE business_id = ? AND status = ? AND transaction_hash IN (?)`,
		businessID, models.LineStatusImported, hashes)
	if err != nil {
		return nil, err
	}

	var matched []string
	if err := r.db.Select(&matched, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, hash := range matched {
		result[hash] = true
	}
	return result, nil
}

// CountByStatus returns the number of lines per status for an upload.
func (r *LineRepository) CountByStatus(uploadID int) (map[string]int, error) {
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	query := "SELECT status, COUNT(*) AS count FROM statement_lines WHERE upload_id = ? GROUP BY status"
	if err := r.db.Select(&rows, query, uploadID); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
