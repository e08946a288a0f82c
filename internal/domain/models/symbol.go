package models

import "fmt"

// Symbol identifies one of the two instruments served by the remote service.
type Symbol string

const (
	SymbolNifty Symbol = "nifty"
	SymbolVix   Symbol = "vix"
)

// Feed/series column names as used on the wire.
const (
	FieldDate         = "Date"
	FieldOpen         = "Open"
	FieldHigh         = "High"
	FieldLow          = "Low"
	FieldClose        = "Close"
	FieldSharesTraded = "Shares Traded"
	FieldTurnover     = "Turnover (₹ Cr)"
	FieldPrevClose    = "Prev. Close"
)

var (
	niftyFields = []string{FieldDate, FieldOpen, FieldHigh, FieldLow, FieldClose, FieldSharesTraded, FieldTurnover}
	vixFields   = []string{FieldDate, FieldOpen, FieldHigh, FieldLow, FieldClose, FieldPrevClose}
)

// ParseSymbol converts raw input into a Symbol.
func ParseSymbol(s string) (Symbol, error) {
	sym := Symbol(s)
	if !sym.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSymbol, s)
	}
	return sym, nil
}

func (s Symbol) Valid() bool {
	return s == SymbolNifty || s == SymbolVix
}

// Alternate returns the other instrument.
func (s Symbol) Alternate() Symbol {
	if s == SymbolNifty {
		return SymbolVix
	}
	return SymbolNifty
}

// FieldNames returns the ordered feed columns for the symbol. The slice is a copy.
func (s Symbol) FieldNames() []string {
	var src []string
	switch s {
	case SymbolNifty:
		src = niftyFields
	case SymbolVix:
		src = vixFields
	default:
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// DisplayName is the label operators know the instrument by.
func (s Symbol) DisplayName() string {
	switch s {
	case SymbolNifty:
		return "NIFTY"
	case SymbolVix:
		return "INDIA VIX"
	default:
		return string(s)
	}
}

// Anchor selects which end of the stored history a bounded query counts from.
type Anchor string

const (
	AnchorStart Anchor = "start"
	AnchorEnd   Anchor = "end"
)

func (a Anchor) Valid() bool {
	return a == AnchorStart || a == AnchorEnd
}

// Mode is the active console mode.
type Mode string

const (
	ModeQuery   Mode = "query"
	ModePredict Mode = "predict"
	ModeFeed    Mode = "feed"
)

// ParseMode converts raw input into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeQuery, ModePredict, ModeFeed:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}
