package usecase

import (
	"errors"
	"testing"

	"MarketDesk/internal/domain/models"
)

func TestFormSetAndPayload(t *testing.T) {
	f, err := NewForm(models.SymbolNifty)
	if err != nil {
		t.Fatalf("NewForm: %v", err)
	}
	if err := f.Set(models.FieldTurnover, " 5000 "); err != nil {
		t.Fatalf("Set: %v", err)
	}

	rows := f.Payload()
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if rows[0][models.FieldTurnover] != " 5000 " {
		t.Fatalf("value should pass through untouched: %q", rows[0][models.FieldTurnover])
	}
	if len(rows[0]) != 7 {
		t.Fatalf("payload should carry every column, got %v", rows[0])
	}
}

func TestFormRejectsForeignKey(t *testing.T) {
	f, _ := NewForm(models.SymbolVix)
	if err := f.Set(models.FieldSharesTraded, "1"); !errors.Is(err, models.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestFormResetAndSnapshotOrder(t *testing.T) {
	f, _ := NewForm(models.SymbolVix)
	_ = f.Set(models.FieldClose, "14.5")
	f.Reset()

	snap := f.Snapshot()
	if !snap.Empty() {
		t.Fatalf("form not blank after reset: %+v", snap)
	}
	want := models.SymbolVix.FieldNames()
	for i, fld := range snap.Fields {
		if fld.Key != want[i] {
			t.Fatalf("field %d out of order: %s", i, fld.Key)
		}
	}
}

func TestNewFormUnknownSymbol(t *testing.T) {
	if _, err := NewForm("sensex"); !errors.Is(err, models.ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}
