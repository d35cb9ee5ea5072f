package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upperCaser = cases.Upper(language.English)

// NormalizeRecognized canonicalizes OCR output: upper-cased and with runs of
// whitespace collapsed to single spaces.
func NormalizeRecognized(text string) string {
	fields := strings.Fields(upperCaser.String(text))
	return strings.Join(fields, " ")
}
