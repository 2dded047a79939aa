package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reconcile-web/internal/models"

	"github.com/sirupsen/logrus"
)

// ImportService commits approved lines into the ledger. Each eligible line
// becomes one transaction plus one balanced journal entry; a per-line
// rejection never aborts the batch, and repeated calls are idempotent
// because imported lines carry their ledger ids.
type ImportService struct {
	uploads      UploadStore
	lines        LineStore
	categories   CategoryStore
	bankAccounts BankAccountStore
	ledger       LedgerPoster
	lifecycle    *LifecycleService
	lock         ImportLocker
	log          *logrus.Logger
}

func NewImportService(
	uploads UploadStore,
	lines LineStore,
	categories CategoryStore,
	bankAccounts BankAccountStore,
	ledger LedgerPoster,
	lifecycle *LifecycleService,
	lock ImportLocker,
	log *logrus.Logger,
) *ImportService {
	return &ImportService{
		uploads:      uploads,
		lines:        lines,
		categories:   categories,
		bankAccounts: bankAccounts,
		ledger:       ledger,
		lifecycle:    lifecycle,
		lock:         lock,
		log:          log,
	}
}

// ImportParams control one importLines call.
type ImportParams struct {
	UploadID   int
	BusinessID int
	// BankAccountID optionally (re)binds the upload to a registry account.
	BankAccountID *int
	// AutoApproveAll also imports pending lines, falling back to the
	// machine suggestion for the category. Flagged duplicates are never
	// auto-approved.
	AutoApproveAll bool
}

// ImportLines posts all eligible lines of an upload to the ledger.
//
// The upload must be "parsed" (first pass) or "completed" (retry pass for
// error lines). The call is serialized per upload: a concurrent attempt
// fails with ConcurrentImportError. Pending lines not covered by
// autoApproveAll are closed out as skipped, so a completed upload never
// carries unreviewed lines. The upload finishes "completed" even if some
// lines errored; "failed" is reserved for the ledger being entirely
// unreachable.
func (s *ImportService) ImportLines(ctx context.Context, params ImportParams) (*models.ImportSummary, error) {
	upload, err := s.uploads.GetByID(params.UploadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewValidationError("upload %d not found", params.UploadID)
		}
		return nil, err
	}
	if upload.BusinessID != params.BusinessID {
		return nil, NewValidationError("upload %d not found", params.UploadID)
	}

	retryPass := upload.Status == models.UploadStatusCompleted
	if upload.Status == models.UploadStatusImporting {
		return nil, &ConcurrentImportError{UploadID: upload.ID}
	}
	if upload.Status != models.UploadStatusParsed && !retryPass {
		return nil, &InvalidTransitionError{
			Entity: "upload", From: upload.Status, To: models.UploadStatusImporting,
			Reason: "only a parsed upload can be imported",
		}
	}

	acquired, err := s.lock.Acquire(ctx, upload.ID)
	if err != nil {
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}
	if !acquired {
		return nil, &ConcurrentImportError{UploadID: upload.ID}
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), upload.ID); err != nil {
			s.log.WithField("upload_id", upload.ID).WithError(err).Warn("could not release import lock")
		}
	}()

	if params.BankAccountID != nil {
		if err := s.bindBankAccount(upload, *params.BankAccountID); err != nil {
			return nil, err
		}
	}

	// A retry pass on a completed upload only revisits error lines and
	// does not move the upload through the state machine again.
	if !retryPass {
		if err := s.lifecycle.transition(upload, models.UploadStatusImporting); err != nil {
			return nil, err
		}
	}

	lines, err := s.lines.GetByUploadID(upload.ID)
	if err != nil {
		return nil, fmt.Errorf("loading lines for upload %d: %w", upload.ID, err)
	}

	summary := &models.ImportSummary{TotalLines: len(lines)}
	for i := range lines {
		line := &lines[i]
		if !s.eligible(line, params.AutoApproveAll, retryPass) {
			continue
		}
		if err := s.commitLine(ctx, upload, line, params.AutoApproveAll, summary); err != nil {
			// The ledger is unreachable; nothing further can progress.
			// Lines already committed keep their linkage, so the counters
			// must still be refreshed before bailing out.
			if !retryPass {
				s.lifecycle.fail(upload, fmt.Sprintf("ledger unavailable: %v", err))
			}
			if recErr := s.lifecycle.RecomputeCounters(upload); recErr != nil {
				s.log.WithField("upload_id", upload.ID).WithError(recErr).Warn("could not recompute counters after ledger outage")
			}
			return nil, err
		}
	}

	// A completed upload may not carry unreviewed lines. Pending lines that
	// were not auto-approved are closed out as skipped; the reviewer chose
	// not to decide them, and skipping is the reversible non-decision.
	if !retryPass {
		for i := range lines {
			line := &lines[i]
			if line.Status != models.LineStatusPending {
				continue
			}
			line.Status = models.LineStatusSkipped
			if err := s.lines.Update(line); err != nil {
				return nil, fmt.Errorf("skipping unreviewed line %d: %w", line.ID, err)
			}
		}
	}

	if err := s.lifecycle.RecomputeCounters(upload); err != nil {
		return nil, err
	}
	if !retryPass {
		if err := s.lifecycle.transition(upload, models.UploadStatusCompleted); err != nil {
			return nil, err
		}
	}

	summary.LinesSkipped = upload.LinesSkipped
	summary.LinesDuplicate = upload.LinesDuplicate
	summary.LinesError = upload.LinesError
	summary.Message = fmt.Sprintf("imported %d of %d lines (%d skipped, %d duplicate, %d error)",
		summary.LinesImported, summary.TotalLines, summary.LinesSkipped, summary.LinesDuplicate, summary.LinesError)

	s.log.WithFields(logrus.Fields{
		"upload_code":    upload.UploadCode,
		"lines_imported": summary.LinesImported,
		"lines_error":    summary.LinesError,
	}).Info("import finished")
	return summary, nil
}

// eligible decides whether a line takes part in this pass. Skipped lines
// and unconfirmed duplicates are left untouched.
func (s *ImportService) eligible(line *models.StatementLine, autoApproveAll, retryPass bool) bool {
	switch line.Status {
	case models.LineStatusApproved:
		return true
	case models.LineStatusPending:
		return autoApproveAll
	case models.LineStatusDuplicate:
		// autoApproveAll never overrides the duplicate flag; that takes a
		// deliberate human confirmation in review.
		return false
	case models.LineStatusError:
		return retryPass
	default:
		return false
	}
}

func (s *ImportService) commitLine(ctx context.Context, upload *models.StatementUpload, line *models.StatementLine, autoApproveAll bool, summary *models.ImportSummary) error {
	// Idempotency: a line that already carries its ledger ids was imported
	// by an earlier call and must not be posted again.
	if line.ImportedTransactionID != nil {
		return nil
	}

	account, err := resolveGLAccount(s.categories, upload.BusinessID, line, autoApproveAll)
	if err != nil {
		return err
	}
	if account == nil {
		s.markLineError(line, "no category resolved: select a category or a manual GL account")
		return nil
	}

	receipt, err := s.ledger.PostEntry(ctx, upload.BusinessID, models.LedgerPosting{
		AccountCode: account.Code,
		AmountKobo:  line.AmountKobo,
		Direction:   line.TransactionType,
		Date:        line.TransactionDate,
		Description: line.Description,
		ReferenceID: line.TransactionHash,
	})
	if err != nil {
		var rejected *LedgerValidationError
		if errors.As(err, &rejected) {
			s.markLineError(line, rejected.Error())
			return nil
		}
		return err
	}

	line.Status = models.LineStatusImported
	line.ErrorMessage = nil
	line.ImportedTransactionID = &receipt.TransactionID
	line.ImportedJournalEntryID = &receipt.JournalEntryID
	line.ImportedJournalNumber = &receipt.JournalNumber
	line.ImportedGLAccountCode = &account.Code
	line.ImportedGLAccountName = &account.Name
	if err := s.lines.Update(line); err != nil {
		return fmt.Errorf("storing import linkage for line %d: %w", line.ID, err)
	}

	summary.LinesImported++
	return nil
}

func (s *ImportService) markLineError(line *models.StatementLine, message string) {
	line.Status = models.LineStatusError
	line.ErrorMessage = &message
	if err := s.lines.Update(line); err != nil {
		s.log.WithField("line_id", line.ID).WithError(err).Error("could not store line error")
	}
}

func (s *ImportService) bindBankAccount(upload *models.StatementUpload, bankAccountID int) error {
	account, err := s.bankAccounts.GetByID(upload.BusinessID, bankAccountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewValidationError("bank account %d not found", bankAccountID)
		}
		return err
	}
	upload.BankAccountID = &account.ID
	return s.uploads.UpdateMetadata(upload)
}
