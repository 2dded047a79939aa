package service

import (
	"database/sql"
	"errors"

	"reconcile-web/internal/models"
)

// resolveGLAccount returns the GL account a line would post to given its
// current selection. Precedence: manual override, then the human-selected
// category, then the machine suggestion when allowSuggested is set. A nil
// account with nil error means nothing resolved.
func resolveGLAccount(categories CategoryStore, businessID int, line *models.StatementLine, allowSuggested bool) (*models.GLAccount, error) {
	if line.ManualGLAccountID != nil {
		return categories.GetGLAccount(*line.ManualGLAccountID)
	}

	categoryID := line.SelectedCategoryID
	if categoryID == nil && allowSuggested {
		categoryID = line.SuggestedCategoryID
	}
	if categoryID == nil {
		return nil, nil
	}

	category, err := categories.GetCategory(businessID, *categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return categories.GetGLAccount(category.GLAccountID)
}

// applyGLPreview recomputes the read-only GL preview fields from the line's
// current category/override selection. Must be called whenever
// selectedCategoryId or manualGlAccountId changes.
func applyGLPreview(categories CategoryStore, businessID int, line *models.StatementLine) error {
	account, err := resolveGLAccount(categories, businessID, line, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			account = nil
		} else {
			return err
		}
	}

	if account == nil {
		line.SuggestedGLAccountCode = nil
		line.SuggestedGLAccountName = nil
		line.SuggestedGLAccountFlow = nil
		return nil
	}

	line.SuggestedGLAccountCode = &account.Code
	line.SuggestedGLAccountName = &account.Name
	line.SuggestedGLAccountFlow = &account.Flow
	return nil
}
