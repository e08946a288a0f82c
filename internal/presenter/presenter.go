// Package presenter turns session results into display-ready view models:
// the prediction card and the series chart/table. It holds no state and
// never feeds anything back into the session.
package presenter

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	rupee = "₹"

	// DefaultTableRows is how many rows of a series the table shows.
	DefaultTableRows = 10
)

type Option func(*Presenter)

// WithLocale selects the number grouping convention (e.g. language.Make("en-IN")).
func WithLocale(tag language.Tag) Option {
	return func(p *Presenter) {
		p.printer = message.NewPrinter(tag)
	}
}

// Presenter formats results for the console.
type Presenter struct {
	printer *message.Printer
}

func New(opts ...Option) *Presenter {
	p := &Presenter{printer: message.NewPrinter(language.English)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// grouped renders d with thousands grouping and at most three fraction digits.
func (p *Presenter) grouped(d decimal.Decimal) string {
	return p.printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(3)))
}

// percent scales a fraction to a percentage with the given precision.
func percent(frac float64, places int32) string {
	d := decimal.NewFromFloat(frac).Shift(2)
	return d.StringFixed(places) + "%"
}

// Label replaces the first underscore of a model label with a space, so
// "IRON_CONDOR" reads "IRON CONDOR".
func Label(s string) string {
	return strings.Replace(s, "_", " ", 1)
}
