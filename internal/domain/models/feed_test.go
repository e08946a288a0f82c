package models

import (
	"encoding/json"
	"testing"
)

func TestFeedSubmissionMarshalsInFormOrder(t *testing.T) {
	row := FeedSubmission{
		FieldTurnover: "5000", FieldClose: "21100", FieldDate: "01-01-2024", FieldOpen: "21000",
		FieldHigh: "21200", FieldLow: "20950", FieldSharesTraded: "", "Note": "x",
	}
	out, err := json.Marshal([]FeedSubmission{row})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"Date":"01-01-2024","Open":"21000","High":"21200","Low":"20950","Close":"21100","Shares Traded":"","Turnover (₹ Cr)":"5000","Note":"x"}]`
	if string(out) != want {
		t.Fatalf("unexpected body:\n got %s\nwant %s", out, want)
	}
}

func TestFeedSubmissionVixOrder(t *testing.T) {
	row := FeedSubmission{FieldPrevClose: "14.2", FieldClose: "14.5", FieldDate: "02-01-2024", FieldOpen: "", FieldHigh: "", FieldLow: ""}
	got := row.Keys()
	want := SymbolVix.FieldNames()
	if len(got) != len(want) {
		t.Fatalf("unexpected keys %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key %d: got %q want %q", i, got[i], want[i])
		}
	}
}
