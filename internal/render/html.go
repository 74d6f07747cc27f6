package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// HTMLRenderer writes the descriptor as Markdown and converts it to a
// standalone HTML page.
type HTMLRenderer struct {
	md goldmark.Markdown
}

// NewHTMLRenderer creates an HTMLRenderer with table support.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		md: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// ContentType implements Renderer.
func (r *HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }

// Extension implements Renderer.
func (r *HTMLRenderer) Extension() string { return ".html" }

// Render implements Renderer.
func (r *HTMLRenderer) Render(ctx context.Context, d model.LiabilityDescriptor) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := r.md.Convert([]byte(Markdown(d)), &body); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head><body>\n", html.EscapeString(title(d)))
	out.Write(body.Bytes())
	out.WriteString("</body></html>\n")
	return out.Bytes(), nil
}

// Markdown renders the descriptor as Markdown text.
func Markdown(d model.LiabilityDescriptor) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", escape(title(d)))
	fmt.Fprintf(&b, "- **Payer:** %s\n", escape(d.Payer.Name))
	fmt.Fprintf(&b, "- **Tax ID:** %s\n", escape(d.Payer.TaxID))
	fmt.Fprintf(&b, "- **Period:** %s\n", d.PeriodLabel)
	fmt.Fprintf(&b, "- **Due date:** %s\n\n", d.DueDate.Format("02/01/2006"))

	for _, s := range d.Sections {
		fmt.Fprintf(&b, "## %s\n\n", escape(s.Title))
		b.WriteString("| Code | Categories | Amount |\n|:---:|:---|---:|\n")
		for _, l := range s.Lines {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", l.RevenueCode, categoryList(l.Categories), l.Amount.StringFixed(2))
		}
		fmt.Fprintf(&b, "| | **Subtotal** | **%s** |\n\n", s.Subtotal.StringFixed(2))
	}

	fmt.Fprintf(&b, "**Total due: %s**\n", d.Total.StringFixed(2))

	for _, n := range d.Notes {
		fmt.Fprintf(&b, "\n_%s_\n", escape(n))
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, `*`, `\*`, `_`, `\_`, "`", "\\`", `|`, `\|`, `<`, `&lt;`, `>`, `&gt;`, `[`, `\[`, `]`, `\]`,
)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
