package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
)

var exportHeader = []string{"Date", "Type", "Amount", "Category", "GSTIN", "GST Amount"}

// Export is a CSV rendition of the ledger.
type Export struct {
	Filename string
	Body     []byte
}

// Export renders the ledger in insertion order as CSV. Fields containing
// commas, quotes or newlines are quoted.
func (s *LedgerService) Export(ctx context.Context) (*Export, error) {
	_, span := tracer.Start(ctx, "LedgerService.Export")
	defer span.End()

	txs := s.Transactions(ctx)
	body, err := EncodeCSV(txs)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return &Export{
		Filename: fmt.Sprintf("gst_transactions_%s.csv", s.Today()),
		Body:     body,
	}, nil
}

// EncodeCSV writes the header row and one row per transaction.
func EncodeCSV(txs []domain.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, t := range txs {
		row := []string{
			t.Date.String(),
			string(t.Kind),
			t.Amount.String(),
			string(t.Category),
			t.TaxpayerID,
			t.TaxAmount.String(),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
