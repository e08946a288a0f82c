package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// numberJSON writes d as a bare JSON number, the way the service sends prices.
func numberJSON(d decimal.Decimal) []byte {
	return []byte(d.String())
}

// TimeSeriesQuery is one series request. Zero fields take the dashboard defaults.
type TimeSeriesQuery struct {
	Symbol Symbol `json:"symbol" default:"nifty" validate:"oneof=nifty vix"`
	Days   int    `json:"days" default:"30" validate:"gte=1"`
	From   Anchor `json:"from_" default:"end" validate:"oneof=start end"`
}

// TimeSeriesPoint is a single daily observation. Column names are the
// service's own; Date stays in DD-MM-YYYY text form. Columns the client does
// not know are kept in Extra so the row round-trips unchanged.
type TimeSeriesPoint struct {
	Date  string
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal

	// NIFTY only.
	SharesTraded *decimal.Decimal
	Turnover     *decimal.Decimal
	// VIX only.
	PrevClose *decimal.Decimal

	Extra map[string]json.RawMessage

	columns []string
}

// Columns returns the point's column names in the order the service sent them.
// Points built in code list the known columns first, then Extra keys sorted.
func (p TimeSeriesPoint) Columns() []string {
	if len(p.columns) > 0 {
		out := make([]string, len(p.columns))
		copy(out, p.columns)
		return out
	}
	cols := []string{FieldDate, FieldOpen, FieldHigh, FieldLow, FieldClose}
	if p.SharesTraded != nil {
		cols = append(cols, FieldSharesTraded)
	}
	if p.Turnover != nil {
		cols = append(cols, FieldTurnover)
	}
	if p.PrevClose != nil {
		cols = append(cols, FieldPrevClose)
	}
	extra := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

func (p *TimeSeriesPoint) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("series point: expected object, got %v", tok)
	}

	var out TimeSeriesPoint
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("series point: unexpected key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("series point %q: %w", key, err)
		}
		if err := out.setColumn(key, raw); err != nil {
			return fmt.Errorf("series point %q: %w", key, err)
		}
		out.columns = append(out.columns, key)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*p = out
	return nil
}

func (p *TimeSeriesPoint) setColumn(key string, raw json.RawMessage) error {
	switch key {
	case FieldDate:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			// keep non-string dates verbatim
			s = string(bytes.TrimSpace(raw))
		}
		p.Date = s
	case FieldOpen:
		return p.Open.UnmarshalJSON(raw)
	case FieldHigh:
		return p.High.UnmarshalJSON(raw)
	case FieldLow:
		return p.Low.UnmarshalJSON(raw)
	case FieldClose:
		return p.Close.UnmarshalJSON(raw)
	case FieldSharesTraded:
		return decodeOptional(raw, &p.SharesTraded)
	case FieldTurnover:
		return decodeOptional(raw, &p.Turnover)
	case FieldPrevClose:
		return decodeOptional(raw, &p.PrevClose)
	default:
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[key] = append(json.RawMessage(nil), raw...)
	}
	return nil
}

func decodeOptional(raw json.RawMessage, dst **decimal.Decimal) error {
	if string(bytes.TrimSpace(raw)) == "null" {
		*dst = nil
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return err
	}
	*dst = &d
	return nil
}

func (p TimeSeriesPoint) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range p.Columns() {
		raw, err := p.column(col)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p TimeSeriesPoint) column(key string) ([]byte, error) {
	switch key {
	case FieldDate:
		return json.Marshal(p.Date)
	case FieldOpen:
		return numberJSON(p.Open), nil
	case FieldHigh:
		return numberJSON(p.High), nil
	case FieldLow:
		return numberJSON(p.Low), nil
	case FieldClose:
		return numberJSON(p.Close), nil
	case FieldSharesTraded:
		return marshalOptional(p.SharesTraded)
	case FieldTurnover:
		return marshalOptional(p.Turnover)
	case FieldPrevClose:
		return marshalOptional(p.PrevClose)
	default:
		if raw, ok := p.Extra[key]; ok {
			return raw, nil
		}
		return []byte("null"), nil
	}
}

func marshalOptional(d *decimal.Decimal) ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	return numberJSON(*d), nil
}

// TimeSeriesResult is the series currently held by the session, in service order.
type TimeSeriesResult struct {
	Symbol Symbol            `json:"symbol"`
	Points []TimeSeriesPoint `json:"data"`
}

// Text returns the cell text of col: decimals in plain notation, missing
// optional columns as "", unknown string columns unquoted.
func (p TimeSeriesPoint) Text(col string) string {
	switch col {
	case FieldDate:
		return p.Date
	case FieldOpen:
		return p.Open.String()
	case FieldHigh:
		return p.High.String()
	case FieldLow:
		return p.Low.String()
	case FieldClose:
		return p.Close.String()
	case FieldSharesTraded:
		return optionalText(p.SharesTraded)
	case FieldTurnover:
		return optionalText(p.Turnover)
	case FieldPrevClose:
		return optionalText(p.PrevClose)
	}
	raw, ok := p.Extra[col]
	if !ok || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func optionalText(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
