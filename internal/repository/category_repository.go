package repository

import (
	"reconcile-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type CategoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) ListCategories(businessID int) ([]models.Category, error) {
	var categories []models.Category
	query := "SELECT * FROM categories WHERE business_id = ? AND is_active = 1 ORDER BY name"
	err := r.db.Select(&categories, query, businessID)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepository) GetCategory(businessID, id int) (*models.Category, error) {
	var category models.Category
	query := "SELECT * FROM categories WHERE id = ? AND business_id = ? LIMIT 1"
	err := r.db.Get(&category, query, id, businessID)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) ListGLAccounts() ([]models.GLAccount, error) {
	var accounts []models.GLAccount
	query := "SELECT * FROM gl_accounts WHERE is_active = 1 ORDER BY code"
	err := r.db.Select(&accounts, query)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *CategoryRepository) GetGLAccount(id int) (*models.GLAccount, error) {
	var account models.GLAccount
	query := "SELECT * FROM gl_accounts WHERE id = ? LIMIT 1"
	err := r.db.Get(&account, query, id)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetActiveRules returns the categorization keyword rules for a business in
// priority order.
func (r *CategoryRepository) GetActiveRules(businessID int) ([]models.CategoryRule, error) {
	var rules []models.CategoryRule
	query := `SELECT * FROM category_rules WHERE business_id = ? AND is_active = 1
	          ORDER BY priority, id`
	err := r.db.Select(&rules, query, businessID)
	if err != nil {
		return nil, err
	}
	return rules, nil
}
