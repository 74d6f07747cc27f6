package render_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/render"
)

func cryptoDescriptor() model.LiabilityDescriptor {
	period := model.Period{Year: 2024, Month: time.February}
	return model.LiabilityDescriptor{
		Scope:       model.ScopeCrypto,
		Payer:       model.Payer{Name: "Ana Souza", TaxID: "123.456.789-00"},
		Period:      period,
		PeriodLabel: period.Label(),
		DueDate:     period.DueDate(),
		Sections: []model.DescriptorSection{
			{
				Scope: model.ScopeCrypto,
				Title: model.ScopeCrypto.Title(),
				Lines: []model.LiabilityLine{
					{RevenueCode: "4600", Categories: []model.Category{model.CategoryCryptoDomestic}, Amount: decimal.RequireFromString("1500")},
					{RevenueCode: "1889", Categories: []model.Category{model.CategoryCryptoForeign}, Amount: decimal.RequireFromString("150")},
				},
				Subtotal: decimal.RequireFromString("1650"),
			},
		},
		Total: decimal.RequireFromString("1650"),
		Notes: []string{"Foreign custody crypto is paid separately."},
	}
}

// TestHTMLRenderer verifies the HTML document carries every amount unchanged.
//
// WHY: The rendered document is what the taxpayer pays from. A renderer that
// drops a line or reformats an amount produces a wrong payment.
func TestHTMLRenderer(t *testing.T) {
	r := render.NewHTMLRenderer()

	t.Run("renders payer period lines and total", func(t *testing.T) {
		// Execute
		out, err := r.Render(context.Background(), cryptoDescriptor())

		// Assert
		if err != nil {
			t.Fatalf("Render() returned unexpected error: %v", err)
		}
		html := string(out)
		for _, want := range []string{
			"<table>", "Ana Souza", "123.456.789-00", "02/2024", "31/03/2024",
			"4600", "1500.00", "1889", "150.00", "1650.00", "CRYPTO_FOREIGN",
		} {
			if !strings.Contains(html, want) {
				t.Errorf("Expected output to contain %q", want)
			}
		}
	})

	t.Run("escapes markdown in user supplied names", func(t *testing.T) {
		d := cryptoDescriptor()
		d.Payer.Name = "<script>*x*</script>"

		out, err := r.Render(context.Background(), d)
		if err != nil {
			t.Fatalf("Render() returned unexpected error: %v", err)
		}
		if strings.Contains(string(out), "<script>") {
			t.Error("Expected payer name to be escaped")
		}
	})

	t.Run("fails on a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := r.Render(ctx, cryptoDescriptor()); err == nil {
			t.Error("Expected error for cancelled context")
		}
	})
}

func TestPDFRenderer(t *testing.T) {
	r := render.NewPDFRenderer()

	out, err := r.Render(context.Background(), cryptoDescriptor())
	if err != nil {
		t.Fatalf("Render() returned unexpected error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("Expected PDF header, got %q", out[:min(len(out), 8)])
	}
	if r.ContentType() != "application/pdf" || r.Extension() != ".pdf" {
		t.Errorf("Unexpected content type %q / extension %q", r.ContentType(), r.Extension())
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"pdf", ".pdf", false},
		{"", ".pdf", false},
		{"html", ".html", false},
		{"docx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := render.New(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error for unknown format")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() returned unexpected error: %v", err)
			}
			if r.Extension() != tt.wantExt {
				t.Errorf("Expected extension %s, got %s", tt.wantExt, r.Extension())
			}
		})
	}
}
