package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Regime labels the client reacts to. Any other label is passed through.
const (
	VolRegimeRising  = "RISING_VOL"
	DirectionBearish = "BEARISH"
)

// PredictionResult is the model output for the next trading session. It is
// kept exactly as received; the probabilities are not renormalized.
type PredictionResult struct {
	SignalDate          string          `json:"signal_date"`
	TradeDate           string          `json:"trade_date"`
	SpotClose           decimal.Decimal `json:"spot_close"`
	PredictedVolatility float64         `json:"predicted_volatility"`
	IndiaVix            decimal.Decimal `json:"india_vix"`
	BullProbability     float64         `json:"bull_probability"`
	BearProbability     float64         `json:"bear_probability"`
	VolRegime           string          `json:"vol_regime"`
	DirectionRegime     string          `json:"direction_regime"`
	Strategy            string          `json:"strategy"`
	Expiry              Expiry          `json:"expiry"`
	Strikes             Strikes         `json:"strikes"`
}

// MarshalJSON writes the prices as JSON numbers.
func (p PredictionResult) MarshalJSON() ([]byte, error) {
	type plain PredictionResult
	return json.Marshal(struct {
		plain
		SpotClose json.Number `json:"spot_close"`
		IndiaVix  json.Number `json:"india_vix"`
	}{plain(p), json.Number(p.SpotClose.String()), json.Number(p.IndiaVix.String())})
}

func (p PredictionResult) RisingVol() bool { return p.VolRegime == VolRegimeRising }

func (p PredictionResult) Bearish() bool { return p.DirectionRegime == DirectionBearish }

type Expiry struct {
	Type string `json:"type"`
	Date string `json:"date"`
}

// Strike is one recommended options leg.
type Strike struct {
	Action string
	Price  decimal.Decimal
}

// Strikes keeps the action→strike mapping in the order the model emitted it.
type Strikes []Strike

// Get returns the strike for an action label.
func (s Strikes) Get(action string) (decimal.Decimal, bool) {
	for _, st := range s {
		if st.Action == action {
			return st.Price, true
		}
	}
	return decimal.Decimal{}, false
}

func (s *Strikes) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*s = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("strikes: expected object, got %v", tok)
	}

	out := Strikes{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		action, ok := tok.(string)
		if !ok {
			return fmt.Errorf("strikes: unexpected key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("strikes %q: %w", action, err)
		}
		var price decimal.Decimal
		if err := price.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("strikes %q: %w", action, err)
		}
		out = append(out, Strike{Action: action, Price: price})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

func (s Strikes) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, st := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(st.Action)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(numberJSON(st.Price))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
