package scan

import (
	"errors"
	"strings"
)

// StatementEnd is the last column of the statement field of a fixed-format
// source line. Columns past it hold continuation and sequence fields.
const StatementEnd = 71

var (
	// ErrMissingOperation is reported for a statement with no operation field.
	ErrMissingOperation = errors.New("missing operation field")

	// ErrUnbalancedQuotes is reported when a quoted string in the operand
	// field is not closed.
	ErrUnbalancedQuotes = errors.New("unbalanced quotes in operand field")
)

// LineType is the coarse type of a source line.
type LineType int

const (
	Statement    LineType = iota
	LoudComment           // '*' in column 1, listed and kept in macro bodies
	QuietComment          // '.*' in columns 1-2, never generated
	Blank
)

// Fields are the fields of one statement.
type Fields struct {
	Label    string
	Op       string
	Operands string
	Remarks  string
}

// Classify returns the type of a source line.
func Classify(text string) LineType {
	line := statement(text)
	switch {
	case strings.TrimSpace(line) == "":
		return Blank
	case strings.HasPrefix(line, ".*"):
		return QuietComment
	case strings.HasPrefix(line, "*"):
		return LoudComment
	default:
		return Statement
	}
}

// Split splits a statement line into its fields.
//
// The label starts in column 1; the operation, operand and remarks fields
// follow, each separated by blanks. Blanks inside quoted strings belong to
// the operand field.
func Split(text string) (Fields, error) {
	line := statement(text)

	var f Fields
	if line != "" && !isBlank(line[0]) {
		f.Label, line = token(line)
	}
	f.Op, line = token(strings.TrimLeft(line, " \t"))
	if f.Op == "" {
		return f, ErrMissingOperation
	}

	line = strings.TrimLeft(line, " \t")
	end, err := operandEnd(line)
	if err != nil {
		f.Operands = line
		return f, err
	}
	f.Operands = line[:end]
	f.Remarks = strings.TrimSpace(line[end:])
	return f, nil
}

// Operands splits an operand field at top-level commas.
func Operands(field string) []string {
	if field == "" {
		return nil
	}
	var out []string
	depth, start := 0, 0
	inQuote := false
	for i := 0; i < len(field); i++ {
		c := field[i]
		switch {
		case c == '\'' && (inQuote || !attributeQuote(field, i)):
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			out = append(out, field[start:i])
			start = i + 1
		}
	}
	return append(out, field[start:])
}

// statement returns the statement field of text without trailing blanks.
func statement(text string) string {
	text = strings.TrimRight(text, "\r\n")
	if len(text) > StatementEnd {
		text = text[:StatementEnd]
	}
	return strings.TrimRight(text, " \t")
}

func token(s string) (string, string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

// operandEnd returns the index of the first blank outside quotes.
func operandEnd(s string) (int, error) {
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' && (inQuote || !attributeQuote(s, i)):
			inQuote = !inQuote
		case isBlank(c) && !inQuote:
			return i, nil
		}
	}
	if inQuote {
		return 0, ErrUnbalancedQuotes
	}
	return len(s), nil
}

// attributeQuote reports whether the quote at s[i] belongs to an attribute
// reference such as L'FIELD rather than opening a string.
func attributeQuote(s string, i int) bool {
	if i == 0 || i+1 >= len(s) {
		return false
	}
	if !strings.ContainsRune("DIKLNOSTdiklnost", rune(s[i-1])) {
		return false
	}
	if i >= 2 && isNameChar(s[i-2]) {
		return false
	}
	next := s[i+1]
	return next == '&' || next == '*' || isNameChar(next) && !isDigit(next)
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameChar(c byte) bool {
	return isDigit(c) || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' ||
		c == '@' || c == '#' || c == '$' || c == '_'
}
