package models

import "time"

// GL account flows. Flow is the side a posting to the account normally
// takes for a statement line in that direction.
const (
	GLFlowDebit  = "debit"
	GLFlowCredit = "credit"
)

type Category struct {
	ID          int       `db:"id" json:"id"`
	BusinessID  int       `db:"business_id" json:"business_id"`
	Name        string    `db:"name" json:"name"`
	Code        string    `db:"code" json:"code"`
	GLAccountID int       `db:"gl_account_id" json:"gl_account_id"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type GLAccount struct {
	ID          int       `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	AccountType string    `db:"account_type" json:"account_type"`
	Flow        string    `db:"flow" json:"flow"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CategoryRule maps a description keyword to a category for the rule-based
// categorization engine. Rules are matched in priority order.
type CategoryRule struct {
	ID         int       `db:"id" json:"id"`
	BusinessID int       `db:"business_id" json:"business_id"`
	Keyword    string    `db:"keyword" json:"keyword"`
	CategoryID int       `db:"category_id" json:"category_id"`
	Priority   int       `db:"priority" json:"priority"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// BankAccount is a reconciled bank account record in the registry.
type BankAccount struct {
	ID            int       `db:"id" json:"id"`
	BusinessID    int       `db:"business_id" json:"business_id"`
	AccountNumber string    `db:"account_number" json:"account_number"`
	AccountName   string    `db:"account_name" json:"account_name"`
	BankName      string    `db:"bank_name" json:"bank_name"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
