package usecase

import (
	"fmt"

	"MarketDesk/internal/domain/models"
)

// Form holds the editable fields of one feed form. Not safe for concurrent
// use; the Session serializes access.
type Form struct {
	symbol models.Symbol
	keys   []string
	values map[string]string
}

// NewForm returns an empty form shaped for symbol.
func NewForm(symbol models.Symbol) (*Form, error) {
	if !symbol.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownSymbol, symbol)
	}
	f := &Form{symbol: symbol, keys: symbol.FieldNames()}
	f.Reset()
	return f, nil
}

func (f *Form) Symbol() models.Symbol { return f.symbol }

// Set replaces the raw value of key. Values are not trimmed or checked.
func (f *Form) Set(key, value string) error {
	if _, ok := f.values[key]; !ok {
		return fmt.Errorf("%w: %q for %s", models.ErrUnknownField, key, f.symbol)
	}
	f.values[key] = value
	return nil
}

// Reset blanks every field.
func (f *Form) Reset() {
	f.values = make(map[string]string, len(f.keys))
	for _, k := range f.keys {
		f.values[k] = ""
	}
}

// Payload returns the form as a single-row batch, values passed through as typed.
func (f *Form) Payload() []models.FeedSubmission {
	row := make(models.FeedSubmission, len(f.keys))
	for _, k := range f.keys {
		row[k] = f.values[k]
	}
	return []models.FeedSubmission{row}
}

// Snapshot copies the form in column order.
func (f *Form) Snapshot() models.FormSnapshot {
	fields := make([]models.FormField, 0, len(f.keys))
	for _, k := range f.keys {
		fields = append(fields, models.FormField{Key: k, Value: f.values[k]})
	}
	return models.FormSnapshot{Symbol: f.symbol, Fields: fields}
}
