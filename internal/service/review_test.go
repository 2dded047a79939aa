package service

import (
	"testing"

	"reconcile-web/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewFixture struct {
	uploads    *fakeUploadStore
	lines      *fakeLineStore
	categories *fakeCategoryStore
	svc        *ReviewService
	upload     models.StatementUpload
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	f := &reviewFixture{
		uploads:    newFakeUploadStore(),
		lines:      newFakeLineStore(),
		categories: newFakeCategoryStore(),
	}
	f.svc = NewReviewService(f.uploads, f.lines, f.categories, testLogger())
	f.upload = f.uploads.put(models.StatementUpload{BusinessID: 42, Status: models.UploadStatusParsed})

	f.categories.glAccounts[100] = models.GLAccount{ID: 100, Code: "6100", Name: "Bank Charges", Flow: models.GLFlowDebit}
	f.categories.glAccounts[101] = models.GLAccount{ID: 101, Code: "4000", Name: "Sales Income", Flow: models.GLFlowCredit}
	f.categories.categories[10] = models.Category{ID: 10, BusinessID: 42, Name: "Bank Charges", Code: "BNK", GLAccountID: 100}
	f.categories.categories[11] = models.Category{ID: 11, BusinessID: 42, Name: "Sales", Code: "SLS", GLAccountID: 101}
	return f
}

func (f *reviewFixture) addLine(status string, isDuplicate bool) models.StatementLine {
	return f.lines.put(models.StatementLine{
		UploadID:        f.upload.ID,
		BusinessID:      42,
		LineNumber:      1,
		TransactionDate: day(2024, 3, 5),
		Description:     "SMS ALERT CHARGE",
		TransactionType: models.TxnTypeDebit,
		AmountKobo:      5250,
		Status:          status,
		IsDuplicate:     isDuplicate,
	})
}

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func TestUpdateLineStatusTransitions(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{models.LineStatusPending, models.LineStatusApproved, true},
		{models.LineStatusPending, models.LineStatusSkipped, true},
		{models.LineStatusApproved, models.LineStatusPending, true},
		{models.LineStatusSkipped, models.LineStatusPending, true},
		{models.LineStatusApproved, models.LineStatusSkipped, false},
		{models.LineStatusSkipped, models.LineStatusApproved, false},
		{models.LineStatusImported, models.LineStatusPending, false},
		{models.LineStatusError, models.LineStatusApproved, false},
	}

	for _, tc := range cases {
		t.Run(tc.from+"_to_"+tc.to, func(t *testing.T) {
			f := newReviewFixture(t)
			line := f.addLine(tc.from, false)

			updated, err := f.svc.UpdateLine(42, line.ID, models.LineUpdateRequest{Status: &tc.to})
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, updated.Status)
			} else {
				var transition *InvalidTransitionError
				assert.ErrorAs(t, err, &transition)
			}
		})
	}
}

func TestUpdateLineReservedStatusesRejected(t *testing.T) {
	f := newReviewFixture(t)
	line := f.addLine(models.LineStatusPending, false)

	for _, reserved := range []string{models.LineStatusImported, models.LineStatusError} {
		_, err := f.svc.UpdateLine(42, line.ID, models.LineUpdateRequest{Status: &reserved})
		var transition *InvalidTransitionError
		assert.ErrorAs(t, err, &transition)
	}
}

func TestUpdateLineDuplicateNeedsConfirmation(t *testing.T) {
	f := newReviewFixture(t)
	line := f.addLine(models.LineStatusDuplicate, true)

	approved := models.LineStatusApproved
	_, err := f.svc.UpdateLine(42, line.ID, models.LineUpdateRequest{Status: &approved})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)

	updated, err := f.svc.UpdateLine(42, line.ID, models.LineUpdateRequest{
		Status: &approved, ConfirmDuplicate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.LineStatusApproved, updated.Status)
	// The flag survives the approval for audit purposes.
	assert.True(t, updated.IsDuplicate)
}

func TestUpdateLineDuplicateSkipWithoutConfirmation(t *testing.T) {
	f := newReviewFixture(t)
	line := f.addLine(models.LineStatusDuplicate, true)

	skipped := models.LineStatusSkipped
	updated, err := f.svc.UpdateLine(42, line.ID, models.LineUpdateRequest{Status: &skipped})
	require.NoError(t, err)
	assert.Equal(t, models.LineStatusSkipped, updated.Status)
}

func TestUpdateLineReviewOnlyWhileParsed(t *testing.T) {
	f := newReviewFixture(t)
	line := f.addLine(models.LineStatusPending, false)
	require.NoError(t, f.uploads.UpdateStatus(f.upload.ID, models.UploadStatusImporting))

	approved := models.LineStatusApproved
	_, err := f.svc.UpdateLine(42, line.ID, models.LineUpdateRequest{Status: &approved})
	var transition *InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestUpdateLineCategorySelectionRecomputesPreview(t *testing.T) {
	f := newReviewFixture(t)
	line := f.addLine(models.LineStatusPending, false)

	updated, err := f.svc.UpdateLine(42, line.ID, models.LineUpdateRequest{SelectedCategoryID: intp(10)})
	require.NoError(t, err)

	require.NotNil(t, updated.SelectedCategoryID)
	assert.Equal(t, 10, *updated.SelectedCategoryID)
	require.NotNil(t, updated.SuggestedGLAccountCode)
	assert.Equal(t, "6100", *updated.SuggestedGLAccountCode)
	assert.Equal(t, "Bank Charges", *updated.SuggestedGLAccountName)
	assert.Equal(t, models.GLFlowDebit, *updated.SuggestedGLAccountFlow)
}

func TestUpdateLineManualGLOverrideWinsOverCategory(t *testing.T) {
	f := newReviewFixture(t)
	line := f.addLine(models.LineStatusPending, false)

	_, err := f.svc.UpdateLine(42, line.ID, models.LineUpdateRequest{SelectedCategoryID: intp(10)})
	require.NoError(t, err)

	updated, err := f.svc.UpdateLine(42, line.ID, models.LineUpdateRequest{ManualGLAccountID: intp(101)})
	require.NoError(t, err)

	require.NotNil(t, updated.SuggestedGLAccountCode)
	assert.Equal(t, "4000", *updated.SuggestedGLAccountCode)
}

func TestUpdateLineUnknownCategoryOrAccount(t *testing.T) {
	f := newReviewFixture(t)
	line := f.addLine(models.LineStatusPending, false)

	var validation *ValidationError
	_, err := f.svc.UpdateLine(42, line.ID, models.LineUpdateRequest{SelectedCategoryID: intp(999)})
	assert.ErrorAs(t, err, &validation)

	_, err = f.svc.UpdateLine(42, line.ID, models.LineUpdateRequest{ManualGLAccountID: intp(999)})
	assert.ErrorAs(t, err, &validation)
}

func TestUpdateLineNotes(t *testing.T) {
	f := newReviewFixture(t)
	line := f.addLine(models.LineStatusPending, false)

	updated, err := f.svc.UpdateLine(42, line.ID, models.LineUpdateRequest{UserNotes: strp("check with accountant")})
	require.NoError(t, err)
	require.NotNil(t, updated.UserNotes)
	assert.Equal(t, "check with accountant", *updated.UserNotes)
}

func TestUpdateLineWrongBusiness(t *testing.T) {
	f := newReviewFixture(t)
	line := f.lines.put(models.StatementLine{
		UploadID: f.upload.ID, BusinessID: 7, Status: models.LineStatusPending,
	})

	approved := models.LineStatusApproved
	_, err := f.svc.UpdateLine(42, line.ID, models.LineUpdateRequest{Status: &approved})
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestBulkUpdatePartialFailure(t *testing.T) {
	f := newReviewFixture(t)
	good := f.addLine(models.LineStatusPending, false)
	bad := f.addLine(models.LineStatusImported, false)

	approved := models.LineStatusApproved
	result, err := f.svc.BulkUpdate(42, models.BulkLineUpdateRequest{
		LineIDs: []int64{good.ID, bad.ID, 9999},
		Status:  &approved,
	})
	require.NoError(t, err)

	require.Len(t, result.Updated, 1)
	assert.Equal(t, good.ID, result.Updated[0].ID)
	assert.Equal(t, models.LineStatusApproved, result.Updated[0].Status)

	require.Len(t, result.Errors, 2)
	// The failed lines are untouched.
	stored, err := f.lines.GetByID(bad.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LineStatusImported, stored.Status)
}

func TestBulkUpdateEmptyRequest(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.BulkUpdate(42, models.BulkLineUpdateRequest{})
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}
