package shared

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rupiahPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount the way back-office staff read it,
// e.g. "Rp 36.000". Fractional cents are rounded away.
func FormatRupiah(d decimal.Decimal) string {
	return rupiahPrinter.Sprintf("Rp %d", d.Round(0).IntPart())
}
