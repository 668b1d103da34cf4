package mcp

import (
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Models discovers and selects models.
	Models driving.ModelCatalog

	// Sessions creates the session the server works in.
	Sessions driving.SessionManager

	// History reads recorded conversations. Optional.
	History driving.History

	// Model is the preferred model when a tool call names none.
	Model string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Models == nil {
		return ErrMissingModelCatalog
	}
	if p.Sessions == nil {
		return ErrMissingSessionManager
	}
	return nil
}
