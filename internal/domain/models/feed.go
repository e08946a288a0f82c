package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// FeedSubmission is one day's observation as typed by the operator, keyed by
// the symbol's column names. Values are raw strings; the service validates them.
type FeedSubmission map[string]string

// feedColumnRank orders the known columns as both feed forms list them.
var feedColumnRank = func() map[string]int {
	rank := make(map[string]int)
	for _, cols := range [][]string{niftyFields, vixFields} {
		for _, c := range cols {
			if _, ok := rank[c]; !ok {
				rank[c] = len(rank)
			}
		}
	}
	return rank
}()

// Keys returns the submission's columns in form order; unknown keys follow, sorted.
func (f FeedSubmission) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := feedColumnRank[keys[i]]
		rj, jok := feedColumnRank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// MarshalJSON writes the row with its keys in form order.
func (f FeedSubmission) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FeedReceipt is the service's acknowledgement of a submission.
type FeedReceipt struct {
	Symbol       Symbol `json:"symbol"`
	RowsInserted int    `json:"rows_inserted"`
}

// Notice is the operator-facing confirmation line.
func (r FeedReceipt) Notice() string {
	return fmt.Sprintf("Success! %d row(s) inserted", r.RowsInserted)
}
