// Package parser holds the built-in statement document parsers. They
// implement the external parser collaborator interface the pipeline
// consumes, so the pipeline itself stays format-agnostic.
package parser

import (
	"path/filepath"
	"strings"

	"reconcile-web/internal/models"
	"reconcile-web/internal/service"
)

// Parser converts one statement document into raw line records.
type Parser interface {
	Parse(filePath string) (*models.ParsedStatement, error)
	Format() models.BankFormat
}

// Registry resolves a parser by file extension.
type Registry struct {
	parsers map[string]Parser
	order   []models.BankFormat
}

func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser for each of its format's extensions. Panics on a
// duplicate extension.
func (r *Registry) Register(p Parser) {
	format := p.Format()
	for _, ext := range format.Extensions {
		key := strings.ToLower(ext)
		if _, ok := r.parsers[key]; ok {
			panic("duplicate parser extension: " + key)
		}
		r.parsers[key] = p
	}
	r.order = append(r.order, format)
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewCSVParser())
	r.Register(NewXLSXParser())
	return r
}

// Parse implements service.DocumentParser.
func (r *Registry) Parse(filePath, originalFilename string) (*models.ParsedStatement, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	p, ok := r.parsers[ext]
	if !ok {
		return nil, &service.UnparsableDocumentError{Reason: "no parser registered for " + ext}
	}
	return p.Parse(filePath)
}

// SupportedFormats implements service.DocumentParser.
func (r *Registry) SupportedFormats() []models.BankFormat {
	formats := make([]models.BankFormat, len(r.order))
	copy(formats, r.order)
	return formats
}
