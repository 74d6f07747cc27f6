// Package render turns liability descriptors into downloadable documents.
package render

import (
	"context"
	"fmt"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// Renderer produces a document from a descriptor. Implementations must not
// alter any amount; they only lay it out.
type Renderer interface {
	Render(ctx context.Context, d model.LiabilityDescriptor) ([]byte, error)
	ContentType() string
	Extension() string
}

// New returns the renderer for format ("pdf" or "html").
func New(format string) (Renderer, error) {
	switch format {
	case "pdf", "":
		return NewPDFRenderer(), nil
	case "html":
		return NewHTMLRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown render format %q", format)
	}
}

func title(d model.LiabilityDescriptor) string {
	if d.Scope == model.ScopeConsolidated {
		return "Consolidated capital gains tax payment " + d.PeriodLabel
	}
	return d.Scope.Title() + " capital gains tax payment " + d.PeriodLabel
}
