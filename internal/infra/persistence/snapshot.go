// Package persistence encodes the ledger and preferences into a key-value
// area. Two keys are used: <prefix>_transactions holds a JSON array of
// transactions and <prefix>_language holds the bare language code.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("infra/persistence")

// SnapshotStore implements port.LedgerStore and port.PreferenceStore.
type SnapshotStore struct {
	kv             port.KVStore
	transactionKey string
	languageKey    string
}

// NewSnapshotStore builds the store; prefix namespaces the two keys.
func NewSnapshotStore(kv port.KVStore, prefix string) *SnapshotStore {
	if prefix == "" {
		prefix = "gstc"
	}
	return &SnapshotStore{
		kv:             kv,
		transactionKey: prefix + "_transactions",
		languageKey:    prefix + "_language",
	}
}

// TransactionKey is the storage key of the transaction list.
func (s *SnapshotStore) TransactionKey() string { return s.transactionKey }

// LanguageKey is the storage key of the language preference.
func (s *SnapshotStore) LanguageKey() string { return s.languageKey }

// LoadTransactions reads the persisted list.
func (s *SnapshotStore) LoadTransactions(ctx context.Context) ([]domain.Transaction, bool, error) {
	ctx, span := tracer.Start(ctx, "SnapshotStore.LoadTransactions")
	defer span.End()

	raw, ok, err := s.kv.Get(ctx, s.transactionKey)
	if err != nil {
		return nil, false, &domain.ErrPersistenceUnavailable{Op: "load_transactions", Err: err}
	}
	if !ok {
		return nil, false, nil
	}
	span.SetAttributes(attribute.Int("snapshot.bytes", len(raw)))

	txs, err := decodeTransactions(raw)
	if err != nil {
		return nil, false, &domain.ErrCorruptSnapshot{Key: s.transactionKey, Err: err}
	}
	return txs, true, nil
}

// SaveTransactions overwrites the persisted list.
func (s *SnapshotStore) SaveTransactions(ctx context.Context, txs []domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "SnapshotStore.SaveTransactions")
	defer span.End()
	span.SetAttributes(attribute.Int("snapshot.transactions", len(txs)))

	if txs == nil {
		txs = []domain.Transaction{}
	}
	raw, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	if err := s.kv.Put(ctx, s.transactionKey, raw); err != nil {
		return &domain.ErrPersistenceUnavailable{Op: "save_transactions", Err: err}
	}
	return nil
}

// LoadLanguage reads the language preference.
func (s *SnapshotStore) LoadLanguage(ctx context.Context) (domain.Language, bool, error) {
	raw, ok, err := s.kv.Get(ctx, s.languageKey)
	if err != nil {
		return "", false, &domain.ErrPersistenceUnavailable{Op: "load_language", Err: err}
	}
	if !ok {
		return "", false, nil
	}

	// Accept both the bare code and a JSON string.
	value := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	lang, err := domain.ParseLanguage(value)
	if err != nil {
		return "", false, &domain.ErrCorruptSnapshot{Key: s.languageKey, Err: err}
	}
	return lang, true, nil
}

// SaveLanguage stores the bare language code.
func (s *SnapshotStore) SaveLanguage(ctx context.Context, lang domain.Language) error {
	if err := s.kv.Put(ctx, s.languageKey, []byte(lang)); err != nil {
		return &domain.ErrPersistenceUnavailable{Op: "save_language", Err: err}
	}
	return nil
}

// Ping delegates to the underlying store.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

// maxTaxScale allows amount scale plus the digits a fractional rate adds.
const maxTaxScale = 8

// decodeTransactions rejects anything that is not a JSON array of
// well-formed transactions. A single bad record invalidates the snapshot.
func decodeTransactions(raw []byte) ([]domain.Transaction, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("expected a JSON array")
	}

	var txs []domain.Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(txs))
	for i, t := range txs {
		switch {
		case t.ID == "":
			return nil, fmt.Errorf("record %d: missing id", i)
		case seen[t.ID]:
			return nil, fmt.Errorf("record %d: duplicate id %q", i, t.ID)
		case t.Date.IsZero():
			return nil, fmt.Errorf("record %d: missing date", i)
		case !t.Kind.Valid():
			return nil, fmt.Errorf("record %d: unknown type %q", i, t.Kind)
		case !t.Category.Valid():
			return nil, fmt.Errorf("record %d: unknown category %q", i, t.Category)
		case domain.CheckAmount(t.Amount) != nil:
			return nil, fmt.Errorf("record %d: amount out of range", i)
		case t.TaxAmount.Sign() < 0 || !domain.Bounded(t.TaxAmount, domain.MaxAmountDigits, maxTaxScale):
			return nil, fmt.Errorf("record %d: tax amount out of range", i)
		}
		seen[t.ID] = true
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}
