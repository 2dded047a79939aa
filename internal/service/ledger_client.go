package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reconcile-web/internal/models"
)

// HTTPLedgerClient talks to the external ledger/journal engine. One call
// creates one transaction and one balanced journal entry. A 4xx answer is a
// per-line LedgerValidationError; transport failures and 5xx answers bubble
// up as plain errors and abort the batch.
type HTTPLedgerClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPLedgerClient(baseURL string, timeout time.Duration) *HTTPLedgerClient {
	return &HTTPLedgerClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type ledgerPostResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    models.LedgerReceipt `json:"data"`
}

func (c *HTTPLedgerClient) PostEntry(ctx context.Context, businessID int, posting models.LedgerPosting) (*models.LedgerReceipt, error) {
	body, err := json.Marshal(posting)
	if err != nil {
		return nil, fmt.Errorf("encoding posting: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/businesses/%d/journal-entries", c.baseURL, businessID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading ledger response: %w", err)
	}

	var decoded ledgerPostResponse
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		reason := fmt.Sprintf("status %d", resp.StatusCode)
		if json.Unmarshal(payload, &decoded) == nil && decoded.Message != "" {
			reason = decoded.Message
		}
		return nil, &LedgerValidationError{Reason: reason}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("ledger returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decoding ledger response: %w", err)
	}
	if decoded.Data.TransactionID == "" || decoded.Data.JournalEntryID == "" {
		return nil, fmt.Errorf("ledger response missing transaction/journal ids")
	}
	return &decoded.Data, nil
}
