package service

import (
	"time"

	"reconcile-web/internal/models"
)

// OverlapGuard answers the advisory pre-flight question of whether a
// candidate statement period intersects a previously accepted upload for
// the same account. The caller may proceed after reviewing the warning;
// statements legitimately overlap at period boundaries.
type OverlapGuard struct {
	uploads UploadStore
}

func NewOverlapGuard(uploads UploadStore) *OverlapGuard {
	return &OverlapGuard{uploads: uploads}
}

// CheckOverlap reports prior non-cancelled, non-failed uploads of the same
// account whose [start, end] interval intersects the candidate range,
// bounds inclusive. Without an account number no overlap is reported:
// periods of different accounts are unrelated.
func (g *OverlapGuard) CheckOverlap(businessID int, accountNumber *string, start, end time.Time) (*models.OverlapResult, error) {
	result := &models.OverlapResult{OverlappingUploads: []models.StatementUpload{}}

	if accountNumber == nil || *accountNumber == "" {
		return result, nil
	}
	if end.Before(start) {
		return nil, NewValidationError("statement end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	overlapping, err := g.uploads.FindOverlapping(businessID, *accountNumber, start, end)
	if err != nil {
		return nil, err
	}

	result.OverlappingUploads = overlapping
	result.OverlappingCount = len(overlapping)
	result.HasOverlap = len(overlapping) > 0
	return result, nil
}
