package ir

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Upper normalizes an operation name, mnemonic or setting to upper case.
func Upper(s string) string {
	return cases.Upper(language.Und).String(s)
}
