package service

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"reconcile-web/internal/config"
	"reconcile-web/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// uploadTransitions is the per-upload state machine. States not listed are
// terminal.
var uploadTransitions = map[string][]string{
	models.UploadStatusUploading: {models.UploadStatusParsing, models.UploadStatusCancelled},
	models.UploadStatusParsing:   {models.UploadStatusParsed, models.UploadStatusFailed, models.UploadStatusCancelled},
	models.UploadStatusParsed:    {models.UploadStatusImporting, models.UploadStatusCancelled},
	models.UploadStatusImporting: {models.UploadStatusCompleted, models.UploadStatusFailed},
}

func canTransitionUpload(from, to string) bool {
	for _, allowed := range uploadTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// LifecycleService owns the per-upload state machine: accepting an upload,
// running the parse stage, and cancellation.
type LifecycleService struct {
	uploads      UploadStore
	lines        LineStore
	categories   CategoryStore
	bankAccounts BankAccountStore
	parser       DocumentParser
	categorizer  Categorizer
	dedup        *DuplicateDetector
	cfg          *config.Config
	log          *logrus.Logger
}

func NewLifecycleService(
	uploads UploadStore,
	lines LineStore,
	categories CategoryStore,
	bankAccounts BankAccountStore,
	parser DocumentParser,
	categorizer Categorizer,
	cfg *config.Config,
	log *logrus.Logger,
) *LifecycleService {
	return &LifecycleService{
		uploads:      uploads,
		lines:        lines,
		categories:   categories,
		bankAccounts: bankAccounts,
		parser:       parser,
		categorizer:  categorizer,
		dedup:        NewDuplicateDetector(lines),
		cfg:          cfg,
		log:          log,
	}
}

// StartUploadParams describes a new statement file before parsing.
type StartUploadParams struct {
	BusinessID            int
	UserID                int
	OriginalFilename      string
	FilePath              string
	FileSizeBytes         int64
	DeclaredAccountNumber *string
}

// ValidateFile rejects empty, oversized or unsupported files before any
// record is created or bytes are stored.
func (s *LifecycleService) ValidateFile(filename string, sizeBytes int64) error {
	if sizeBytes <= 0 {
		return NewValidationError("uploaded file is empty")
	}
	if sizeBytes > int64(s.cfg.UploadMaxSize) {
		return NewValidationError("file size %d exceeds the maximum of %d bytes", sizeBytes, s.cfg.UploadMaxSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range s.cfg.UploadAllowedExts {
		if ext == allowed {
			return nil
		}
	}
	return NewValidationError("unsupported file type %q, allowed: %s", ext, strings.Join(s.cfg.UploadAllowedExts, ", "))
}

// StartUpload validates the file and creates the upload record in state
// "uploading". Parsing is triggered separately as background work.
func (s *LifecycleService) StartUpload(params StartUploadParams) (*models.StatementUpload, error) {
	if err := s.ValidateFile(params.OriginalFilename, params.FileSizeBytes); err != nil {
		return nil, err
	}

	upload := &models.StatementUpload{
		UploadCode:       fmt.Sprintf("STMT-%s", uuid.New().String()[:8]),
		BusinessID:       params.BusinessID,
		UserID:           params.UserID,
		OriginalFilename: params.OriginalFilename,
		FilePath:         params.FilePath,
		FileSizeBytes:    params.FileSizeBytes,
		Status:           models.UploadStatusUploading,
		AccountNumber:    params.DeclaredAccountNumber,
	}

	if err := s.uploads.Create(upload); err != nil {
		return nil, fmt.Errorf("creating upload record: %w", err)
	}
	return upload, nil
}

// CancelUpload cancels an upload that has not started importing. Once
// importing begins the upload is past the point of no return: committed
// lines must not be silently orphaned, so the caller has to wait.
func (s *LifecycleService) CancelUpload(businessID, id int) (*models.StatementUpload, error) {
	upload, err := s.getOwned(businessID, id)
	if err != nil {
		return nil, err
	}

	switch upload.Status {
	case models.UploadStatusUploading, models.UploadStatusParsing, models.UploadStatusParsed:
		if err := s.transition(upload, models.UploadStatusCancelled); err != nil {
			return nil, err
		}
		return upload, nil
	case models.UploadStatusImporting:
		return nil, &InvalidTransitionError{
			Entity: "upload", From: upload.Status, To: models.UploadStatusCancelled,
			Reason: "import has begun; wait for it to finish",
		}
	default:
		return nil, &InvalidTransitionError{Entity: "upload", From: upload.Status, To: models.UploadStatusCancelled}
	}
}

// RunParse executes the parse stage for an upload. It is called from the
// background worker, never from a request handler.
func (s *LifecycleService) RunParse(uploadID int) error {
	upload, err := s.uploads.GetByID(uploadID)
	if err != nil {
		return fmt.Errorf("loading upload %d: %w", uploadID, err)
	}

	// The user may have cancelled between enqueue and pickup.
	if upload.Status == models.UploadStatusCancelled {
		s.log.WithField("upload_code", upload.UploadCode).Info("upload cancelled, skipping parse")
		return nil
	}
	if upload.Status != models.UploadStatusUploading {
		s.log.WithFields(logrus.Fields{
			"upload_code": upload.UploadCode,
			"status":      upload.Status,
		}).Info("upload not awaiting parse, skipping")
		return nil
	}

	if err := s.transition(upload, models.UploadStatusParsing); err != nil {
		return err
	}

	parsed, err := s.parser.Parse(upload.FilePath, upload.OriginalFilename)
	if err != nil {
		s.fail(upload, fmt.Sprintf("parse failed: %v", err))
		var unparsable *UnparsableDocumentError
		if errors.As(err, &unparsable) {
			// The document itself is bad; retrying the task won't help.
			return nil
		}
		return err
	}

	if len(parsed.Lines) == 0 {
		s.fail(upload, "statement contained no transaction lines")
		return nil
	}

	s.applyDetectedMetadata(upload, parsed)

	lines := s.buildLines(upload, parsed.Lines)
	if err := s.dedup.Annotate(upload.BusinessID, lines); err != nil {
		s.fail(upload, fmt.Sprintf("duplicate detection failed: %v", err))
		return err
	}
	s.categorize(upload.BusinessID, lines)

	for start := 0; start < len(lines); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(lines) {
			end = len(lines)
		}
		if err := s.lines.BulkInsert(lines[start:end]); err != nil {
			s.fail(upload, fmt.Sprintf("storing parsed lines failed: %v", err))
			return err
		}
	}

	if err := s.RecomputeCounters(upload); err != nil {
		return err
	}
	if err := s.transition(upload, models.UploadStatusParsed); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"upload_code":     upload.UploadCode,
		"lines_parsed":    upload.TotalLinesParsed,
		"lines_duplicate": upload.LinesDuplicate,
	}).Info("statement parsed")
	return nil
}

// RecomputeCounters refreshes the aggregate counters from the stored line
// statuses. Counters are never incremented ad hoc, to avoid drift.
func (s *LifecycleService) RecomputeCounters(upload *models.StatementUpload) error {
	counts, err := s.lines.CountByStatus(upload.ID)
	if err != nil {
		return fmt.Errorf("counting line statuses: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	upload.TotalLinesParsed = total
	upload.LinesPending = counts[models.LineStatusPending]
	upload.LinesApproved = counts[models.LineStatusApproved]
	upload.LinesSkipped = counts[models.LineStatusSkipped]
	upload.LinesImported = counts[models.LineStatusImported]
	upload.LinesDuplicate = counts[models.LineStatusDuplicate]
	upload.LinesError = counts[models.LineStatusError]

	return s.uploads.UpdateCounters(upload)
}

func (s *LifecycleService) getOwned(businessID, id int) (*models.StatementUpload, error) {
	upload, err := s.uploads.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewValidationError("upload %d not found", id)
		}
		return nil, err
	}
	if upload.BusinessID != businessID {
		return nil, NewValidationError("upload %d not found", id)
	}
	return upload, nil
}

func (s *LifecycleService) transition(upload *models.StatementUpload, to string) error {
	if !canTransitionUpload(upload.Status, to) {
		return &InvalidTransitionError{Entity: "upload", From: upload.Status, To: to}
	}
	if err := s.uploads.UpdateStatus(upload.ID, to); err != nil {
		return fmt.Errorf("updating upload %d status: %w", upload.ID, err)
	}
	upload.Status = to
	return nil
}

func (s *LifecycleService) fail(upload *models.StatementUpload, message string) {
	s.log.WithFields(logrus.Fields{
		"upload_code": upload.UploadCode,
		"error":       message,
	}).Error("upload failed")
	if err := s.uploads.SetFailed(upload.ID, message); err != nil {
		s.log.WithField("upload_id", upload.ID).WithError(err).Error("could not mark upload failed")
		return
	}
	upload.Status = models.UploadStatusFailed
	upload.ErrorMessage = message
}

// applyDetectedMetadata copies parser-detected metadata onto the upload and
// links a registry bank account when the detected number matches one.
func (s *LifecycleService) applyDetectedMetadata(upload *models.StatementUpload, parsed *models.ParsedStatement) {
	if parsed.BankName != nil {
		upload.BankName = parsed.BankName
	}
	if parsed.AccountNumber != nil {
		upload.AccountNumber = parsed.AccountNumber
	}
	if parsed.AccountName != nil {
		upload.AccountName = parsed.AccountName
	}

	start, end := parsed.StartDate, parsed.EndDate
	if start == nil || end == nil {
		minDate, maxDate := lineDateRange(parsed.Lines)
		if start == nil {
			start = minDate
		}
		if end == nil {
			end = maxDate
		}
	}
	upload.StatementStartDate = start
	upload.StatementEndDate = end

	if upload.BankAccountID == nil && upload.AccountNumber != nil {
		account, err := s.bankAccounts.FindByAccountNumber(upload.BusinessID, *upload.AccountNumber)
		if err == nil && account != nil {
			upload.BankAccountID = &account.ID
		}
	}

	if err := s.uploads.UpdateMetadata(upload); err != nil {
		s.log.WithField("upload_id", upload.ID).WithError(err).Warn("could not store detected metadata")
	}
}

func (s *LifecycleService) buildLines(upload *models.StatementUpload, raw []models.RawLine) []models.StatementLine {
	lines := make([]models.StatementLine, 0, len(raw))
	for i, r := range raw {
		lineNumber := r.LineNumber
		if lineNumber == 0 {
			lineNumber = i + 1
		}
		lines = append(lines, models.StatementLine{
			UploadID:         upload.ID,
			BusinessID:       upload.BusinessID,
			LineNumber:       lineNumber,
			TransactionDate:  r.TransactionDate,
			ValueDate:        r.ValueDate,
			Description:      r.Description,
			Reference:        r.Reference,
			TransactionType:  r.TransactionType,
			AmountKobo:       r.AmountKobo,
			BalanceAfterKobo: r.BalanceAfterKobo,
			TransactionHash:  HashLine(r),
			Status:           models.LineStatusPending,
		})
	}
	return lines
}

// categorize attaches advisory suggestions and the initial GL preview.
// Suggestion failures are logged and skipped; categorization never blocks
// parsing.
func (s *LifecycleService) categorize(businessID int, lines []models.StatementLine) {
	for i := range lines {
		line := &lines[i]
		suggestion, err := s.categorizer.Suggest(businessID, line)
		if err != nil {
			s.log.WithField("line_number", line.LineNumber).WithError(err).Warn("categorization failed")
			continue
		}
		if suggestion == nil {
			continue
		}
		line.SuggestedCategoryID = &suggestion.CategoryID
		line.SuggestedCategoryName = &suggestion.CategoryName
		line.SuggestedCategoryCode = &suggestion.CategoryCode
		line.CategoryConfidence = &suggestion.Confidence

		if err := applyGLPreview(s.categories, businessID, line); err != nil {
			s.log.WithField("line_number", line.LineNumber).WithError(err).Warn("GL preview failed")
		}
	}
}

func lineDateRange(lines []models.RawLine) (*time.Time, *time.Time) {
	if len(lines) == 0 {
		return nil, nil
	}
	minDate, maxDate := lines[0].TransactionDate, lines[0].TransactionDate
	for _, l := range lines[1:] {
		if l.TransactionDate.Before(minDate) {
			minDate = l.TransactionDate
		}
		if l.TransactionDate.After(maxDate) {
			maxDate = l.TransactionDate
		}
	}
	return &minDate, &maxDate
}
