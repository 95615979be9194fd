package edit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"codeberg.org/go-pdf/fpdf"
)

// Item is one invoice line.
type Item struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Invoice describes a document generated from scratch.
type Invoice struct {
	ClientName string `json:"client_name"`
	Number     string `json:"number,omitempty"`
	Date       string `json:"date,omitempty"`
	Items      []Item `json:"items"`
}

// ErrEmptyInvoice is returned for an invoice without a client or items.
var ErrEmptyInvoice = errors.New("invoice needs a client name and at least one item")

const (
	invoiceMargin = 56.0
	invoiceLine   = 18.0
	amountColumn  = 120.0
)

// Cents converts an amount to integer cents, rounding half away from zero.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FormatCents renders cents as a decimal amount, e.g. 1499 as "14.99".
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// Total sums the item amounts in cents.
func (inv Invoice) Total() int64 {
	var total int64
	for _, it := range inv.Items {
		total += Cents(it.Amount)
	}
	return total
}

// GenerateInvoice builds a new A4 document listing each item on its own line
// followed by the total. Items that do not fit continue on further pages.
func GenerateInvoice(ctx context.Context, inv Invoice) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(inv.ClientName) == "" || len(inv.Items) == 0 {
		return nil, ErrEmptyInvoice
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(invoiceMargin, invoiceMargin, invoiceMargin)
	pdf.SetAutoPageBreak(true, invoiceMargin)
	pdf.SetTitle("Invoice "+inv.Number, true)
	pdf.SetCreator("folio", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	nameW := pageW - 2*invoiceMargin - amountColumn

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 28, "INVOICE", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	if inv.Number != "" {
		pdf.CellFormat(0, invoiceLine, tr("Invoice #: "+inv.Number), "", 1, "L", false, 0, "")
	}
	if inv.Date != "" {
		pdf.CellFormat(0, invoiceLine, tr("Date: "+inv.Date), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, invoiceLine, tr("Bill to: "+inv.ClientName), "", 1, "L", false, 0, "")
	pdf.Ln(invoiceLine)

	header := func() {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(235, 235, 235)
		pdf.CellFormat(nameW, invoiceLine, "Item", "B", 0, "L", true, 0, "")
		pdf.CellFormat(amountColumn, invoiceLine, "Amount", "B", 1, "R", true, 0, "")
		pdf.SetFont("Helvetica", "", 11)
	}
	header()

	_, pageH := pdf.GetPageSize()
	for _, it := range inv.Items {
		if pdf.GetY()+invoiceLine > pageH-invoiceMargin {
			pdf.AddPage()
			header()
		}
		pdf.CellFormat(nameW, invoiceLine, tr(it.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(amountColumn, invoiceLine, FormatCents(Cents(it.Amount)), "", 1, "R", false, 0, "")
	}

	if pdf.GetY()+invoiceLine > pageH-invoiceMargin {
		pdf.AddPage()
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, invoiceLine, "Total: "+FormatCents(inv.Total()), "T", 1, "R", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to generate invoice: %w", err)
	}
	return out.Bytes(), nil
}
