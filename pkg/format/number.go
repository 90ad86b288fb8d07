// Package format renders numbers for people.
package format

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Number renders n with thousands separators, e.g. 15000 as "15,000".
func Number(n int64) string {
	// message.Printer keeps formatting state, so one per call.
	return message.NewPrinter(language.English).Sprintf("%d", n)
}
