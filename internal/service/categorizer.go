package service

import (
	"strings"
	"sync"

	"reconcile-web/internal/models"
)

// Rule-match confidence levels. A whole-description match is a much
// stronger signal than a substring hit.
const (
	confidenceExact    = 0.95
	confidenceContains = 0.75
)

// RuleStore loads the keyword rules the categorizer matches against.
// Implemented by repository.CategoryRepository.
type RuleStore interface {
	GetActiveRules(businessID int) ([]models.CategoryRule, error)
	GetCategory(businessID, id int) (*models.Category, error)
}

// RuleCategorizer is a keyword-rule categorization engine. Rules are matched
// against the normalized description in priority order; the first hit wins.
// Suggestions are advisory only and never committed without a human
// decision.
type RuleCategorizer struct {
	rules RuleStore

	mu    sync.Mutex
	cache map[int][]models.CategoryRule
}

func NewRuleCategorizer(rules RuleStore) *RuleCategorizer {
	return &RuleCategorizer{rules: rules, cache: make(map[int][]models.CategoryRule)}
}

func (c *RuleCategorizer) Suggest(businessID int, line *models.StatementLine) (*models.CategorySuggestion, error) {
	rules, err := c.loadRules(businessID)
	if err != nil {
		return nil, err
	}

	description := normalizeDescription(line.Description)
	for _, rule := range rules {
		keyword := normalizeDescription(rule.Keyword)
		if keyword == "" || !strings.Contains(description, keyword) {
			continue
		}

		category, err := c.rules.GetCategory(businessID, rule.CategoryID)
		if err != nil {
			return nil, err
		}

		confidence := confidenceContains
		if description == keyword {
			confidence = confidenceExact
		}
		return &models.CategorySuggestion{
			CategoryID:   category.ID,
			CategoryName: category.Name,
			CategoryCode: category.Code,
			Confidence:   confidence,
		}, nil
	}

	// No rule matched; no suggestion.
	return nil, nil
}

// loadRules caches the active rule set per business for the lifetime of the
// categorizer, which is one worker task.
func (c *RuleCategorizer) loadRules(businessID int) ([]models.CategoryRule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rules, ok := c.cache[businessID]; ok {
		return rules, nil
	}
	rules, err := c.rules.GetActiveRules(businessID)
	if err != nil {
		return nil, err
	}
	c.cache[businessID] = rules
	return rules, nil
}
