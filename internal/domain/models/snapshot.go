package models

// FormField is one editable key/value pair of a feed form.
type FormField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FormSnapshot is a copy of a feed form in column order.
type FormSnapshot struct {
	Symbol Symbol      `json:"symbol"`
	Fields []FormField `json:"fields"`
}

// Value returns the current value of key, or "" if the form has no such key.
func (f FormSnapshot) Value(key string) string {
	for _, fld := range f.Fields {
		if fld.Key == key {
			return fld.Value
		}
	}
	return ""
}

// Empty reports whether every field is blank.
func (f FormSnapshot) Empty() bool {
	for _, fld := range f.Fields {
		if fld.Value != "" {
			return false
		}
	}
	return true
}

// Snapshot is a read-only view of the session taken after a state transition.
// Result pointers are shared with the session; results are replaced wholesale
// and never mutated in place.
type Snapshot struct {
	Version     uint64                  `json:"version"`
	Mode        Mode                    `json:"mode"`
	Busy        bool                    `json:"busy"`
	LastError   string                  `json:"last_error,omitempty"`
	Notice      string                  `json:"notice,omitempty"`
	Query       TimeSeriesQuery         `json:"query"`
	Series      *TimeSeriesResult       `json:"series,omitempty"`
	Prediction  *PredictionResult       `json:"prediction,omitempty"`
	LastReceipt *FeedReceipt            `json:"last_receipt,omitempty"`
	Forms       map[Symbol]FormSnapshot `json:"forms"`
}

// SeriesFor returns the held series if it belongs to sym.
func (s Snapshot) SeriesFor(sym Symbol) *TimeSeriesResult {
	if s.Series != nil && s.Series.Symbol == sym {
		return s.Series
	}
	return nil
}

// NiftyData mirrors the dashboard's NIFTY slot.
func (s Snapshot) NiftyData() *TimeSeriesResult { return s.SeriesFor(SymbolNifty) }

// VixData mirrors the dashboard's VIX slot.
func (s Snapshot) VixData() *TimeSeriesResult { return s.SeriesFor(SymbolVix) }
