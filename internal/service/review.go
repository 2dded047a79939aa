package service

import (
	"database/sql"
	"errors"
	"fmt"

	"reconcile-web/internal/models"

	"github.com/sirupsen/logrus"
)

// ReviewService mediates the human review of parsed lines: status
// transitions, category selection, manual GL overrides and notes.
type ReviewService struct {
	uploads    UploadStore
	lines      LineStore
	categories CategoryStore
	log        *logrus.Logger
}

func NewReviewService(uploads UploadStore, lines LineStore, categories CategoryStore, log *logrus.Logger) *ReviewService {
	return &ReviewService{uploads: uploads, lines: lines, categories: categories, log: log}
}

// reviewTransitions are the status changes a caller may request directly.
// "imported" and "error" are reserved for the import committer.
var reviewTransitions = map[string][]string{
	models.LineStatusPending:   {models.LineStatusApproved, models.LineStatusSkipped},
	models.LineStatusDuplicate: {models.LineStatusApproved, models.LineStatusSkipped},
	models.LineStatusApproved:  {models.LineStatusPending},
	models.LineStatusSkipped:   {models.LineStatusPending},
}

func canTransitionLine(from, to string) bool {
	for _, allowed := range reviewTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// UpdateLine applies a review update to one line. The status change and the
// GL preview recomputation are persisted together in a single write.
func (s *ReviewService) UpdateLine(businessID int, lineID int64, req models.LineUpdateRequest) (*models.StatementLine, error) {
	line, err := s.getOwnedLine(businessID, lineID)
	if err != nil {
		return nil, err
	}

	upload, err := s.uploads.GetByID(line.UploadID)
	if err != nil {
		return nil, fmt.Errorf("loading upload %d: %w", line.UploadID, err)
	}

	if req.Status != nil {
		if err := s.checkStatusChange(upload, line, *req.Status, req.ConfirmDuplicate); err != nil {
			return nil, err
		}
		line.Status = *req.Status
	}

	selectionChanged := false
	if req.SelectedCategoryID != nil {
		if line.Status == models.LineStatusImported {
			return nil, NewValidationError("line %d is already imported and can no longer be recategorized", lineID)
		}
		if _, err := s.categories.GetCategory(businessID, *req.SelectedCategoryID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, NewValidationError("category %d not found", *req.SelectedCategoryID)
			}
			return nil, err
		}
		line.SelectedCategoryID = req.SelectedCategoryID
		selectionChanged = true
	}
	if req.ManualGLAccountID != nil {
		if line.Status == models.LineStatusImported {
			return nil, NewValidationError("line %d is already imported and can no longer be recategorized", lineID)
		}
		if _, err := s.categories.GetGLAccount(*req.ManualGLAccountID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, NewValidationError("GL account %d not found", *req.ManualGLAccountID)
			}
			return nil, err
		}
		line.ManualGLAccountID = req.ManualGLAccountID
		selectionChanged = true
	}
	if req.UserNotes != nil {
		line.UserNotes = req.UserNotes
	}

	if selectionChanged {
		if err := applyGLPreview(s.categories, businessID, line); err != nil {
			return nil, fmt.Errorf("recomputing GL preview: %w", err)
		}
	}

	if err := s.lines.Update(line); err != nil {
		return nil, fmt.Errorf("updating line %d: %w", lineID, err)
	}
	return line, nil
}

// BulkUpdate applies the same review update per line. It is deliberately
// not atomic across lines: a bad id or illegal transition fails only that
// line and is reported in the per-line error list.
func (s *ReviewService) BulkUpdate(businessID int, req models.BulkLineUpdateRequest) (*models.BulkLineUpdateResult, error) {
	if len(req.LineIDs) == 0 {
		return nil, NewValidationError("line_ids must not be empty")
	}

	result := &models.BulkLineUpdateResult{
		Updated: []models.StatementLine{},
		Errors:  []models.BulkLineError{},
	}

	lineReq := models.LineUpdateRequest{
		Status:             req.Status,
		SelectedCategoryID: req.SelectedCategoryID,
		ManualGLAccountID:  req.ManualGLAccountID,
		ConfirmDuplicate:   req.ConfirmDuplicate,
	}

	for _, lineID := range req.LineIDs {
		line, err := s.UpdateLine(businessID, lineID, lineReq)
		if err != nil {
			result.Errors = append(result.Errors, models.BulkLineError{LineID: lineID, Error: err.Error()})
			continue
		}
		result.Updated = append(result.Updated, *line)
	}
	return result, nil
}

func (s *ReviewService) checkStatusChange(upload *models.StatementUpload, line *models.StatementLine, to string, confirmDuplicate bool) error {
	switch to {
	case models.LineStatusImported, models.LineStatusError:
		return &InvalidTransitionError{
			Entity: "line", From: line.Status, To: to,
			Reason: "reserved for the import committer",
		}
	}

	if upload.Status != models.UploadStatusParsed {
		return &InvalidTransitionError{
			Entity: "line", From: line.Status, To: to,
			Reason: fmt.Sprintf("upload is %s, review is only possible while it is parsed", upload.Status),
		}
	}
	if !canTransitionLine(line.Status, to) {
		return &InvalidTransitionError{Entity: "line", From: line.Status, To: to}
	}

	// A flagged duplicate is never approved silently.
	if to == models.LineStatusApproved && line.IsDuplicate && !confirmDuplicate {
		return NewValidationError("line %d is flagged as a duplicate; approving it requires confirm_duplicate", line.ID)
	}
	return nil
}

func (s *ReviewService) getOwnedLine(businessID int, lineID int64) (*models.StatementLine, error) {
	line, err := s.lines.GetByID(lineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewValidationError("line %d not found", lineID)
		}
		return nil, err
	}
	if line.BusinessID != businessID {
		return nil, NewValidationError("line %d not found", lineID)
	}
	return line, nil
}
