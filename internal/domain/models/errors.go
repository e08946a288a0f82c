package models

import "errors"

var (
	// ErrBusy is returned when a request is dispatched while another one is
	// still outstanding.
	ErrBusy = errors.New("a request is already in flight")
	// ErrUnknownMode is returned for a mode outside query/predict/feed.
	ErrUnknownMode = errors.New("unknown mode")
	// ErrUnknownSymbol is returned for a symbol outside nifty/vix.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrUnknownField is returned when a form key is not part of the symbol's field set.
	ErrUnknownField = errors.New("unknown form field")
	// ErrInvalidQuery is returned for series query parameters that break the
	// query invariants (positive day count, closed symbol and anchor sets).
	ErrInvalidQuery = errors.New("invalid query")
)
