package service

import (
	"testing"
	"time"

	"reconcile-web/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func overlapFixture(t *testing.T) (*OverlapGuard, *fakeUploadStore) {
	t.Helper()
	uploads := newFakeUploadStore()

	account := "0123456789"
	start := day(2024, 3, 1)
	end := day(2024, 3, 31)
	uploads.overlapping = []models.StatementUpload{{
		ID:                 1,
		BusinessID:         42,
		Status:             models.UploadStatusCompleted,
		AccountNumber:      &account,
		StatementStartDate: &start,
		StatementEndDate:   &end,
	}}

	return NewOverlapGuard(uploads), uploads
}

func TestCheckOverlapIntersectingPeriods(t *testing.T) {
	guard, _ := overlapFixture(t)
	account := "0123456789"

	result, err := guard.CheckOverlap(42, &account, day(2024, 3, 15), day(2024, 4, 15))
	require.NoError(t, err)

	assert.True(t, result.HasOverlap)
	assert.Equal(t, 1, result.OverlappingCount)
	require.Len(t, result.OverlappingUploads, 1)
	assert.Equal(t, 1, result.OverlappingUploads[0].ID)
}

func TestCheckOverlapAdjacentPeriods(t *testing.T) {
	guard, _ := overlapFixture(t)
	account := "0123456789"

	// April starts the day after March ends; no intersection.
	result, err := guard.CheckOverlap(42, &account, day(2024, 4, 1), day(2024, 4, 30))
	require.NoError(t, err)

	assert.False(t, result.HasOverlap)
	assert.Empty(t, result.OverlappingUploads)
}

func TestCheckOverlapSharedBoundaryDay(t *testing.T) {
	guard, _ := overlapFixture(t)
	account := "0123456789"

	// Bounds are inclusive: a range starting on the existing end date overlaps.
	result, err := guard.CheckOverlap(42, &account, day(2024, 3, 31), day(2024, 4, 30))
	require.NoError(t, err)

	assert.True(t, result.HasOverlap)
}

func TestCheckOverlapDifferentAccount(t *testing.T) {
	guard, _ := overlapFixture(t)
	other := "9876543210"

	result, err := guard.CheckOverlap(42, &other, day(2024, 3, 15), day(2024, 4, 15))
	require.NoError(t, err)

	assert.False(t, result.HasOverlap)
}

func TestCheckOverlapWithoutAccountNumber(t *testing.T) {
	guard, _ := overlapFixture(t)

	result, err := guard.CheckOverlap(42, nil, day(2024, 3, 15), day(2024, 4, 15))
	require.NoError(t, err)
	assert.False(t, result.HasOverlap)

	empty := ""
	result, err = guard.CheckOverlap(42, &empty, day(2024, 3, 15), day(2024, 4, 15))
	require.NoError(t, err)
	assert.False(t, result.HasOverlap)
}

func TestCheckOverlapEndBeforeStart(t *testing.T) {
	guard, _ := overlapFixture(t)
	account := "0123456789"

	_, err := guard.CheckOverlap(42, &account, day(2024, 4, 15), day(2024, 3, 15))
	require.Error(t, err)

	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCheckOverlapIgnoresCancelledAndFailed(t *testing.T) {
	guard, uploads := overlapFixture(t)
	account := "0123456789"

	for i := range uploads.overlapping {
		uploads.overlapping[i].Status = models.UploadStatusCancelled
	}

	result, err := guard.CheckOverlap(42, &account, day(2024, 3, 15), day(2024, 4, 15))
	require.NoError(t, err)
	assert.False(t, result.HasOverlap)
}
