package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"reconcile-web/internal/models"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeUploadStore struct {
	mu      sync.Mutex
	uploads map[int]models.StatementUpload
	nextID  int

	overlapping []models.StatementUpload
	overlapErr  error
}

func newFakeUploadStore() *fakeUploadStore {
	return &fakeUploadStore{uploads: make(map[int]models.StatementUpload), nextID: 1}
}

func (s *fakeUploadStore) put(upload models.StatementUpload) models.StatementUpload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if upload.ID == 0 {
		upload.ID = s.nextID
		s.nextID++
	} else if upload.ID >= s.nextID {
		s.nextID = upload.ID + 1
	}
	s.uploads[upload.ID] = upload
	return upload
}

func (s *fakeUploadStore) Create(upload *models.StatementUpload) error {
	stored := s.put(*upload)
	upload.ID = stored.ID
	return nil
}

func (s *fakeUploadStore) GetByID(id int) (*models.StatementUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	upload, ok := s.uploads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := upload
	return &copied, nil
}

func (s *fakeUploadStore) UpdateStatus(id int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	upload, ok := s.uploads[id]
	if !ok {
		return sql.ErrNoRows
	}
	upload.Status = status
	s.uploads[id] = upload
	return nil
}

func (s *fakeUploadStore) SetFailed(id int, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	upload, ok := s.uploads[id]
	if !ok {
		return sql.ErrNoRows
	}
	upload.Status = models.UploadStatusFailed
	upload.ErrorMessage = errorMessage
	s.uploads[id] = upload
	return nil
}

func (s *fakeUploadStore) UpdateMetadata(upload *models.StatementUpload) error {
	s.put(*upload)
	return nil
}

func (s *fakeUploadStore) UpdateCounters(upload *models.StatementUpload) error {
	s.put(*upload)
	return nil
}

func (s *fakeUploadStore) FindOverlapping(businessID int, accountNumber string, start, end time.Time) ([]models.StatementUpload, error) {
	if s.overlapErr != nil {
		return nil, s.overlapErr
	}
	var matched []models.StatementUpload
	for _, upload := range s.overlapping {
		if upload.BusinessID != businessID {
			continue
		}
		if upload.AccountNumber == nil || *upload.AccountNumber != accountNumber {
			continue
		}
		if upload.Status == models.UploadStatusCancelled || upload.Status == models.UploadStatusFailed {
			continue
		}
		if upload.StatementStartDate == nil || upload.StatementEndDate == nil {
			continue
		}
		if !upload.StatementStartDate.After(end) && !upload.StatementEndDate.Before(start) {
			matched = append(matched, upload)
		}
	}
	return matched, nil
}

type fakeLineStore struct {
	mu     sync.Mutex
	lines  map[int64]models.StatementLine
	nextID int64

	importedHashesErr error
}

func newFakeLineStore() *fakeLineStore {
	return &fakeLineStore{lines: make(map[int64]models.StatementLine), nextID: 1}
}

func (s *fakeLineStore) put(line models.StatementLine) models.StatementLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line.ID == 0 {
		line.ID = s.nextID
		s.nextID++
	} else if line.ID >= s.nextID {
		s.nextID = line.ID + 1
	}
	s.lines[line.ID] = line
	return line
}

func (s *fakeLineStore) BulkInsert(lines []models.StatementLine) error {
	for i := range lines {
		stored := s.put(lines[i])
		lines[i].ID = stored.ID
	}
	return nil
}

func (s *fakeLineStore) GetByID(id int64) (*models.StatementLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.lines[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := line
	return &copied, nil
}

func (s *fakeLineStore) GetByUploadID(uploadID int) ([]models.StatementLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var lines []models.StatementLine
	for _, line := range s.lines {
		if line.UploadID == uploadID {
			lines = append(lines, line)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })
	return lines, nil
}

func (s *fakeLineStore) Update(line *models.StatementLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lines[line.ID]; !ok {
		return sql.ErrNoRows
	}
	s.lines[line.ID] = *line
	return nil
}

func (s *fakeLineStore) ImportedHashes(businessID int, hashes []string) (map[string]bool, error) {
	if s.importedHashesErr != nil {
		return nil, s.importedHashesErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		wanted[h] = true
	}
	result := make(map[string]bool)
	for _, line := range s.lines {
		if line.BusinessID == businessID && line.Status == models.LineStatusImported && wanted[line.TransactionHash] {
			result[line.TransactionHash] = true
		}
	}
	return result, nil
}

func (s *fakeLineStore) CountByStatus(uploadID int) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, line := range s.lines {
		if line.UploadID == uploadID {
			counts[line.Status]++
		}
	}
	return counts, nil
}

type fakeCategoryStore struct {
	categories map[int]models.Category
	glAccounts map[int]models.GLAccount
	rules      []models.CategoryRule
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{
		categories: make(map[int]models.Category),
		glAccounts: make(map[int]models.GLAccount),
	}
}

func (s *fakeCategoryStore) GetCategory(businessID, id int) (*models.Category, error) {
	category, ok := s.categories[id]
	if !ok || category.BusinessID != businessID {
		return nil, sql.ErrNoRows
	}
	return &category, nil
}

func (s *fakeCategoryStore) GetGLAccount(id int) (*models.GLAccount, error) {
	account, ok := s.glAccounts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &account, nil
}

func (s *fakeCategoryStore) GetActiveRules(businessID int) ([]models.CategoryRule, error) {
	var rules []models.CategoryRule
	for _, rule := range s.rules {
		if rule.BusinessID == businessID && rule.IsActive {
			rules = append(rules, rule)
		}
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })
	return rules, nil
}

type fakeBankAccountStore struct {
	accounts map[int]models.BankAccount
}

func newFakeBankAccountStore() *fakeBankAccountStore {
	return &fakeBankAccountStore{accounts: make(map[int]models.BankAccount)}
}

func (s *fakeBankAccountStore) GetByID(businessID, id int) (*models.BankAccount, error) {
	account, ok := s.accounts[id]
	if !ok || account.BusinessID != businessID {
		return nil, sql.ErrNoRows
	}
	return &account, nil
}

func (s *fakeBankAccountStore) FindByAccountNumber(businessID int, accountNumber string) (*models.BankAccount, error) {
	for _, account := range s.accounts {
		if account.BusinessID == businessID && account.AccountNumber == accountNumber {
			copied := account
			return &copied, nil
		}
	}
	return nil, nil
}

// fakeLedger records postings and can inject failures by reference id.
type fakeLedger struct {
	mu       sync.Mutex
	postings []models.LedgerPosting
	rejectBy map[string]error
	next     int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rejectBy: make(map[string]error)}
}

func (l *fakeLedger) PostEntry(ctx context.Context, businessID int, posting models.LedgerPosting) (*models.LedgerReceipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, ok := l.rejectBy[posting.ReferenceID]; ok {
		return nil, err
	}
	l.next++
	l.postings = append(l.postings, posting)
	return &models.LedgerReceipt{
		TransactionID:  fmt.Sprintf("txn-%d", l.next),
		JournalEntryID: fmt.Sprintf("je-%d", l.next),
		JournalNumber:  fmt.Sprintf("JRN-%04d", l.next),
	}, nil
}

type fakeLock struct {
	mu       sync.Mutex
	held     map[int]bool
	denyAll  bool
	acquires int
	releases int
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: make(map[int]bool)}
}

func (l *fakeLock) Acquire(ctx context.Context, uploadID int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.denyAll || l.held[uploadID] {
		return false, nil
	}
	l.held[uploadID] = true
	l.acquires++
	return true, nil
}

func (l *fakeLock) Release(ctx context.Context, uploadID int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, uploadID)
	l.releases++
	return nil
}

type fakeParser struct {
	statement *models.ParsedStatement
	err       error
}

func (p *fakeParser) Parse(filePath, originalFilename string) (*models.ParsedStatement, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.statement, nil
}

func (p *fakeParser) SupportedFormats() []models.BankFormat {
	return []models.BankFormat{{Code: "test", Name: "Test Format", Extensions: []string{".csv"}}}
}

type noSuggestionCategorizer struct{}

func (noSuggestionCategorizer) Suggest(businessID int, line *models.StatementLine) (*models.CategorySuggestion, error) {
	return nil, nil
}
