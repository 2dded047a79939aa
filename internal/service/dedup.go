package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"reconcile-web/internal/models"
)

// DuplicateDetector flags candidate lines whose transaction hash matches a
// line already imported anywhere in the business's ledger history.
type DuplicateDetector struct {
	lines LineStore
}

func NewDuplicateDetector(lines LineStore) *DuplicateDetector {
	return &DuplicateDetector{lines: lines}
}

// ComputeHash builds the canonical fingerprint of a line's economically
// identifying fields. It is deterministic and independent of parse order:
// the description is case-folded and whitespace-collapsed, the reference
// trimmed. Computed once at parse time, never recomputed.
func ComputeHash(date time.Time, amountKobo int64, transactionType, reference, description string) string {
	payload := fmt.Sprintf("%s|%d|%s|%s|%s",
		date.Format("2006-01-02"),
		amountKobo,
		transactionType,
		strings.TrimSpace(reference),
		normalizeDescription(description),
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// HashLine computes the transaction hash for a raw parsed line.
func HashLine(line models.RawLine) string {
	ref := ""
	if line.Reference != nil {
		ref = *line.Reference
	}
	return ComputeHash(line.TransactionDate, line.AmountKobo, line.TransactionType, ref, line.Description)
}

func normalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Annotate marks candidates whose hash is already present on an imported
// line for the business. A match sets isDuplicate and the initial status
// "duplicate"; no match leaves the line "pending". A hash collision across
// unrelated transactions is an accepted rare false positive — the reviewer
// can still approve the line explicitly.
func (d *DuplicateDetector) Annotate(businessID int, candidates []models.StatementLine) error {
	if len(candidates) == 0 {
		return nil
	}

	hashes := make([]string, 0, len(candidates))
	for i := range candidates {
		hashes = append(hashes, candidates[i].TransactionHash)
	}

	imported, err := d.lines.ImportedHashes(businessID, hashes)
	if err != nil {
		return fmt.Errorf("looking up imported hashes: %w", err)
	}

	for i := range candidates {
		line := &candidates[i]
		if imported[line.TransactionHash] {
			line.IsDuplicate = true
			line.Status = models.LineStatusDuplicate
		} else {
			line.IsDuplicate = false
			line.Status = models.LineStatusPending
		}
	}

	return nil
}
