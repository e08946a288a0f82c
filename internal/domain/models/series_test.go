package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTimeSeriesPointDecodesNiftyColumns(t *testing.T) {
	raw := `{"Date":"01-01-2024","Open":21000,"High":21200,"Low":20950,"Close":21100,"Shares Traded":123456,"Turnover (₹ Cr)":5000}`

	var p TimeSeriesPoint
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Date != "01-01-2024" {
		t.Fatalf("date reformatted: %q", p.Date)
	}
	if !p.Close.Equal(decimal.NewFromInt(21100)) {
		t.Fatalf("unexpected close %s", p.Close)
	}
	if p.Turnover == nil || !p.Turnover.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("turnover not decoded: %v", p.Turnover)
	}
	if p.SharesTraded == nil || p.PrevClose != nil {
		t.Fatalf("unexpected optional columns: %+v", p)
	}

	cols := p.Columns()
	want := []string{"Date", "Open", "High", "Low", "Close", "Shares Traded", "Turnover (₹ Cr)"}
	if strings.Join(cols, "|") != strings.Join(want, "|") {
		t.Fatalf("column order mismatch: %v", cols)
	}
}

func TestTimeSeriesPointRoundTripKeepsUnknownColumns(t *testing.T) {
	raw := `{"Date":"02-01-2024","Open":"14.1","High":15,"Low":13.9,"Close":14.5,"Prev. Close":14.2,"Source":"nse"}`

	var p TimeSeriesPoint
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.PrevClose == nil || !p.PrevClose.Equal(decimal.RequireFromString("14.2")) {
		t.Fatalf("prev close not decoded: %v", p.PrevClose)
	}
	if string(p.Extra["Source"]) != `"nse"` {
		t.Fatalf("extra column lost: %v", p.Extra)
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"Date":"02-01-2024","Open":14.1,"High":15,"Low":13.9,"Close":14.5,"Prev. Close":14.2,"Source":"nse"}`
	if string(out) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", out, want)
	}
}

func TestTimeSeriesPointRejectsNonObject(t *testing.T) {
	var p TimeSeriesPoint
	if err := json.Unmarshal([]byte(`[1,2]`), &p); err == nil {
		t.Fatalf("expected error for array point")
	}
}

func TestStrikesKeepOrder(t *testing.T) {
	var pr PredictionResult
	raw := `{"bull_probability":0.6,"bear_probability":0.4,"strikes":{"SELL_CALL":22500,"BUY_CALL":22700,"SELL_PUT":21500}}`
	if err := json.Unmarshal([]byte(raw), &pr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(pr.Strikes) != 3 || pr.Strikes[0].Action != "SELL_CALL" || pr.Strikes[2].Action != "SELL_PUT" {
		t.Fatalf("strike order lost: %+v", pr.Strikes)
	}
	if v, ok := pr.Strikes.Get("BUY_CALL"); !ok || !v.Equal(decimal.NewFromInt(22700)) {
		t.Fatalf("Get mismatch: %v %v", v, ok)
	}

	out, err := json.Marshal(pr.Strikes)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"SELL_CALL":22500,"BUY_CALL":22700,"SELL_PUT":21500}` {
		t.Fatalf("unexpected strikes json %s", out)
	}
}

func TestParseHelpers(t *testing.T) {
	if _, err := ParseSymbol("sensex"); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
	if _, err := ParseMode("view"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
	if got := len(SymbolNifty.FieldNames()); got != 7 {
		t.Fatalf("nifty form should have 7 fields, got %d", got)
	}
	if got := len(SymbolVix.FieldNames()); got != 6 {
		t.Fatalf("vix form should have 6 fields, got %d", got)
	}
	if SymbolNifty.Alternate() != SymbolVix || SymbolVix.Alternate() != SymbolNifty {
		t.Fatalf("alternate symbol mismatch")
	}
}

func TestColumnsSortsExtraForBuiltPoints(t *testing.T) {
	p := TimeSeriesPoint{
		Date:  "03-01-2024",
		Close: decimal.NewFromInt(14),
		Extra: map[string]json.RawMessage{"Zeta": []byte(`1`), "Alpha": []byte(`2`), "Mid": []byte(`3`)},
	}
	want := "Date|Open|High|Low|Close|Alpha|Mid|Zeta"
	for i := 0; i < 5; i++ {
		if got := strings.Join(p.Columns(), "|"); got != want {
			t.Fatalf("unstable column order: %s", got)
		}
	}
}

func TestPredictionMarshalsPricesAsNumbers(t *testing.T) {
	pr := PredictionResult{
		SpotClose: decimal.RequireFromString("21710.8"),
		IndiaVix:  decimal.RequireFromString("13.2"),
		Strikes:   Strikes{{Action: "SELL_CALL", Price: decimal.NewFromInt(22000)}},
	}
	out, err := json.Marshal(pr)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"spot_close":21710.8`, `"india_vix":13.2`, `"strikes":{"SELL_CALL":22000}`} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
}
