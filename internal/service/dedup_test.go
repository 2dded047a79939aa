package service

import (
	"testing"
	"time"

	"reconcile-web/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHashDeterministic(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	h1 := ComputeHash(date, 18500000, models.TxnTypeDebit, "SAL-2024-03", "SALARY MARCH - OKAFOR J")
	h2 := ComputeHash(date, 18500000, models.TxnTypeDebit, "SAL-2024-03", "SALARY MARCH - OKAFOR J")

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestComputeHashNormalizesDescriptionAndReference(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	base := ComputeHash(date, 500000, models.TxnTypeCredit, "NIP-220344", "TRF FROM ADEBAYO STORES LTD")

	// Case and whitespace differences in the description do not change the hash.
	assert.Equal(t, base, ComputeHash(date, 500000, models.TxnTypeCredit, "NIP-220344", "trf  from   adebayo stores ltd"))
	// Leading and trailing whitespace on the reference is trimmed.
	assert.Equal(t, base, ComputeHash(date, 500000, models.TxnTypeCredit, "  NIP-220344  ", "TRF FROM ADEBAYO STORES LTD"))
}

func TestComputeHashSensitiveToIdentifyingFields(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	base := ComputeHash(date, 500000, models.TxnTypeCredit, "NIP-220344", "TRANSFER")

	assert.NotEqual(t, base, ComputeHash(date.AddDate(0, 0, 1), 500000, models.TxnTypeCredit, "NIP-220344", "TRANSFER"))
	assert.NotEqual(t, base, ComputeHash(date, 500001, models.TxnTypeCredit, "NIP-220344", "TRANSFER"))
	assert.NotEqual(t, base, ComputeHash(date, 500000, models.TxnTypeDebit, "NIP-220344", "TRANSFER"))
	assert.NotEqual(t, base, ComputeHash(date, 500000, models.TxnTypeCredit, "NIP-220345", "TRANSFER"))
	assert.NotEqual(t, base, ComputeHash(date, 500000, models.TxnTypeCredit, "NIP-220344", "TRANSFER FEE"))
}

func TestHashLineWithNilReference(t *testing.T) {
	date := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	line := models.RawLine{
		TransactionDate: date,
		Description:     "SMS ALERT CHARGE",
		TransactionType: models.TxnTypeDebit,
		AmountKobo:      5250,
	}

	assert.Equal(t, ComputeHash(date, 5250, models.TxnTypeDebit, "", "SMS ALERT CHARGE"), HashLine(line))
}

func TestAnnotateFlagsPreviouslyImportedLines(t *testing.T) {
	lines := newFakeLineStore()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	importedHash := ComputeHash(date, 15230050, models.TxnTypeCredit, "POS-88121", "POS SETTLEMENT MERCHANT 4411")
	lines.put(models.StatementLine{
		UploadID:        1,
		BusinessID:      42,
		TransactionHash: importedHash,
		Status:          models.LineStatusImported,
	})

	candidates := []models.StatementLine{
		{BusinessID: 42, TransactionHash: importedHash},
		{BusinessID: 42, TransactionHash: "somethingelse"},
	}

	detector := NewDuplicateDetector(lines)
	require.NoError(t, detector.Annotate(42, candidates))

	assert.True(t, candidates[0].IsDuplicate)
	assert.Equal(t, models.LineStatusDuplicate, candidates[0].Status)
	assert.False(t, candidates[1].IsDuplicate)
	assert.Equal(t, models.LineStatusPending, candidates[1].Status)
}

func TestAnnotateScopedToBusiness(t *testing.T) {
	lines := newFakeLineStore()
	hash := "a-hash"
	lines.put(models.StatementLine{
		UploadID:        1,
		BusinessID:      7,
		TransactionHash: hash,
		Status:          models.LineStatusImported,
	})

	candidates := []models.StatementLine{{BusinessID: 42, TransactionHash: hash}}
	detector := NewDuplicateDetector(lines)
	require.NoError(t, detector.Annotate(42, candidates))

	assert.False(t, candidates[0].IsDuplicate)
	assert.Equal(t, models.LineStatusPending, candidates[0].Status)
}

func TestAnnotateIgnoresNonImportedMatches(t *testing.T) {
	lines := newFakeLineStore()
	hash := "pending-hash"
	// Same hash exists but was only parsed, never committed to the ledger.
	lines.put(models.StatementLine{
		UploadID:        1,
		BusinessID:      42,
		TransactionHash: hash,
		Status:          models.LineStatusPending,
	})

	candidates := []models.StatementLine{{BusinessID: 42, TransactionHash: hash}}
	detector := NewDuplicateDetector(lines)
	require.NoError(t, detector.Annotate(42, candidates))

	assert.False(t, candidates[0].IsDuplicate)
}
