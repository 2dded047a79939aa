package parser

import (
	"strings"
	"time"

	"reconcile-web/internal/service"

	"github.com/shopspring/decimal"
)

// parseAmountKobo converts a display amount like "1,234.56" into integer
// kobo. Amounts are never carried as floating point.
func parseAmountKobo(raw string) (int64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimPrefix(cleaned, "₦")
	cleaned = strings.TrimPrefix(cleaned, "NGN")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, &service.UnparsableDocumentError{Reason: "empty amount"}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, &service.UnparsableDocumentError{Reason: "bad amount " + raw}
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"02 Jan 2006",
	"Jan 2, 2006",
}

func parseDate(raw string) (time.Time, error) {
	cleaned := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &service.UnparsableDocumentError{Reason: "unrecognized date " + raw}
}
