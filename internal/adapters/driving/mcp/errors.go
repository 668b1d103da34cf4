// Package mcp provides an MCP (Model Context Protocol) server adapter for pdfchat.
// It lets AI assistants load a PDF and ask the local model questions about it.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

var (
	// ErrMissingModelCatalog is returned when the model catalog is not provided.
	ErrMissingModelCatalog = errors.New("mcp: model catalog is required")

	// ErrMissingSessionManager is returned when the session manager is not provided.
	ErrMissingSessionManager = errors.New("mcp: session manager is required")
)

// withHint appends the remediation hint for err, if any.
func withHint(err error) error {
	notice := domain.Describe(err)
	if notice.Hint == "" {
		return err
	}
	return fmt.Errorf("%w (%s)", err, notice.Hint)
}
