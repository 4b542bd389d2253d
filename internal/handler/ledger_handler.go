package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Transactions
// ============================================================

const maxTransactionBody = 8 << 10

// createTransactionRequest is the body of POST /v1/transactions. Amount
// accepts a JSON number or a numeric string; an empty date means today.
type createTransactionRequest struct {
	Date       string          `json:"date"`
	Type       string          `json:"type"`
	Amount     json.RawMessage `json:"amount"`
	Category   string          `json:"category"`
	TaxpayerID string          `json:"gstin"`
}

func (req createTransactionRequest) toInput(today domain.Date) (domain.TransactionInput, error) {
	amount, err := domain.ParseAmount(strings.Trim(string(req.Amount), `"`))
	if err != nil {
		return domain.TransactionInput{}, err
	}

	date := today
	if strings.TrimSpace(req.Date) != "" {
		if date, err = domain.ParseDate(req.Date); err != nil {
			return domain.TransactionInput{}, err
		}
	}

	return domain.TransactionInput{
		Date:       date,
		Kind:       domain.Kind(strings.ToLower(strings.TrimSpace(req.Type))),
		Amount:     amount,
		Category:   domain.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		TaxpayerID: req.TaxpayerID,
	}, nil
}

type transactionList struct {
	Transactions []domain.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
}

// listTransactionsHandler serves GET /v1/transactions?order=insertion|date.
func listTransactionsHandler(ledger *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var txs []domain.Transaction
		switch r.URL.Query().Get("order") {
		case "", "insertion":
			txs = ledger.Transactions(r.Context())
		case "date":
			txs = ledger.TransactionsByDate(r.Context())
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "order must be 'insertion' or 'date'", Field: "order"})
			return
		}
		writeJSON(w, http.StatusOK, transactionList{Transactions: txs, Count: len(txs)})
	}
}

func createTransactionHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		var req createTransactionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTransactionBody)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		in, err := req.toInput(ledger.Today())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		tx, err := ledger.Add(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("transaction.id", tx.ID))

		w.Header().Set("Location", "/v1/transactions/"+tx.ID)
		writeJSON(w, http.StatusCreated, tx)
	}
}

func getTransactionHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tx, err := ledger.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

// deleteTransactionHandler answers 204 whether or not the id existed.
func deleteTransactionHandler(ledger *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transactions/{id}")
		defer span.End()

		removed := ledger.Delete(ctx, chi.URLParam(r, "id"))
		span.SetAttributes(attribute.Bool("transaction.removed", removed))
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Ledger views
// ============================================================

func resetLedgerHandler(ledger *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txs := ledger.Reset(r.Context())
		writeJSON(w, http.StatusOK, transactionList{Transactions: txs, Count: len(txs)})
	}
}

func summaryHandler(ledger *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ledger.Summary(r.Context()))
	}
}

func monthlyHandler(ledger *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"months": ledger.MonthlyRollup(r.Context())})
	}
}

func complianceHandler(ledger *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := ledger.Today()
		writeJSON(w, http.StatusOK, map[string]any{
			"score": ledger.ComplianceScore(r.Context()),
			"date":  today,
		})
	}
}

func exportHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exp, err := ledger.Export(r.Context())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exp.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(exp.Body)
	}
}
