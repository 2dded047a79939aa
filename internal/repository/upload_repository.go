package repository

import (
	"time"

	"reconcile-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type UploadRepository struct {
	db *sqlx.DB
}

func NewUploadRepository(db *sqlx.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

func (r *UploadRepository) Create(upload *models.StatementUpload) error {
	query := `INSERT INTO statement_uploads (upload_code, business_id, user_id, original_filename,
	          file_path, file_size_bytes, status, account_number)
	          VALUES (:upload_code, :business_id, :user_id, :original_filename,
	          :file_path, :file_size_bytes, :status, :account_number)`
	result, err := r.db.NamedExec(query, upload)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	upload.ID = int(id)
	return nil
}

func (r *UploadRepository) GetByID(id int) (*models.StatementUpload, error) {
	var upload models.StatementUpload
	query := "SELECT * FROM statement_uploads WHERE id = ? LIMIT 1"
	err := r.db.Get(&upload, query, id)
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func (r *UploadRepository) GetByCode(code string) (*models.StatementUpload, error) {
	var upload models.StatementUpload
	query := "SELECT * FROM statement_uploads WHERE upload_code = ? LIMIT 1"
	err := r.db.Get(&upload, query, code)
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func (r *UploadRepository) List(businessID, limit, offset int) ([]models.StatementUpload, int, error) {
	var uploads []models.StatementUpload
	var total int

	countQuery := "SELECT COUNT(*) FROM statement_uploads WHERE business_id = ?"
	if err := r.db.Get(&total, countQuery, businessID); err != nil {
		return nil, 0, err
	}

	query := `SELECT * FROM statement_uploads WHERE business_id = ?
	          ORDER BY created_at DESC LIMIT ? OFFSET ?`
	if err := r.db.Select(&uploads, query, businessID, limit, offset); err != nil {
		return nil, 0, err
	}

	return uploads, total, nil
}

func (r *UploadRepository) UpdateStatus(id int, status string) error {
	query := "UPDATE statement_uploads SET status = ?, updated_at = NOW() WHERE id = ?"
	_, err := r.db.Exec(query, status, id)
	return err
}

func (r *UploadRepository) SetFailed(id int, errorMessage string) error {
	query := "UPDATE statement_uploads SET status = ?, error_message = ?, updated_at = NOW() WHERE id = ?"
	_, err := r.db.Exec(query, models.UploadStatusFailed, errorMessage, id)
	return err
}

// UpdateMetadata stores parser-detected metadata and the bank account link.
func (r *UploadRepository) UpdateMetadata(upload *models.StatementUpload) error {
	query := `UPDATE statement_uploads SET bank_name = :bank_name,
	          statement_start_date = :statement_start_date, statement_end_date = :statement_end_date,
	          account_number = :account_number, account_name = :account_name,
	          bank_account_id = :bank_account_id, file_path = :file_path, updated_at = NOW()
	          WHERE id = :id`
	_, err := r.db.NamedExec(query, upload)
	return err
}

func (r *UploadRepository) UpdateCounters(upload *models.StatementUpload) error {
	query := `UPDATE statement_uploads SET total_lines_parsed = :total_lines_parsed,
	          lines_imported = :lines_imported, lines_skipped = :lines_skipped,
	          lines_duplicate = :lines_duplicate, lines_pending = :lines_pending,
	          lines_approved = :lines_approved, lines_error = :lines_error, updated_at = NOW()
	          WHERE id = :id`
	_, err := r.db.NamedExec(query, upload)
	return err
}

// FindOverlapping returns prior non-cancelled, non-failed uploads of the
// account whose statement period intersects [start, end], bounds inclusive.
func (r *UploadRepository) FindOverlapping(businessID int, accountNumber string, start, end time.Time) ([]models.StatementUpload, error) {
	var uploads []models.StatementUpload
	query := `SELECT * FROM statement_uploads
	          WHERE business_id = ? AND account_number = ?
	          AND status NOT IN (?, ?)
	          AND statement_start_date IS NOT NULL AND statement_end_date IS NOT NULL
	          AND statement_start_date <= ? AND statement_end_date >= ?
	          ORDER BY statement_start_date`
	err := r.db.Select(&uploads, query, businessID, accountNumber,
		models.UploadStatusCancelled, models.UploadStatusFailed, end, start)
	if err != nil {
		return nil, err
	}
	return uploads, nil
}

// Delete removes an upload and its lines. Lines are owned by the upload and
// never survive it.
func (r *UploadRepository) Delete(id int) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM statement_lines WHERE upload_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM statement_uploads WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}
