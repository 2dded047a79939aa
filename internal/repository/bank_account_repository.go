package repository

import (
	"database/sql"
	"errors"

	"reconcile-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type BankAccountRepository struct {
	db *sqlx.DB
}

func NewBankAccountRepository(db *sqlx.DB) *BankAccountRepository {
	return &BankAccountRepository{db: db}
}

func (r *BankAccountRepository) ListByBusiness(businessID int) ([]models.BankAccount, error) {
	var accounts []models.BankAccount
	query := "SELECT * FROM bank_accounts WHERE business_id = ? AND is_active = 1 ORDER BY bank_name, account_name"
	err := r.db.Select(&accounts, query, businessID)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *BankAccountRepository) GetByID(businessID, id int) (*models.BankAccount, error) {
	var account models.BankAccount
	query := "SELECT * FROM bank_accounts WHERE id = ? AND business_id = ? LIMIT 1"
	err := r.db.Get(&account, query, id, businessID)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByAccountNumber returns nil without error when no account matches.
func (r *BankAccountRepository) FindByAccountNumber(businessID int, accountNumber string) (*models.BankAccount, error) {
	var account models.BankAccount
	query := "SELECT * FROM bank_accounts WHERE business_id = ? AND account_number = ? LIMIT 1"
	err := r.db.Get(&account, query, businessID, accountNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}
