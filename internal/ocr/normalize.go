package ocr

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize reduces OCR output to a layout-independent form: compatibility
// decomposition (NFKC), lower case, punctuation and symbols dropped, whitespace runs
// collapsed to one space and trimmed. A '.' or ',' between two digits is kept so that
// "1,000.50" and "100050" stay distinct.
//
// Punctuation (Unicode P*, including '%', '#' and '@') splits words like whitespace,
// except the joiners '-' and '\''. Symbols (Unicode S*, such as '$', '+', '=' and '<')
// are dropped without splitting, so "a+b" and "ab" normalize to the same text.
func Normalize(text string) string {
	runes := []rune(norm.NFKC.String(text))
	var b strings.Builder
	b.Grow(len(runes))
	pendingSpace := false

	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
		case (r == '.' || r == ',') && betweenDigits(runes, i):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		default:
			// Punctuation splits words the way whitespace does ("total:100" == "total 100").
			if unicode.IsPunct(r) && !isJoiner(r) {
				pendingSpace = true
			}
		}
	}
	return b.String()
}

func betweenDigits(runes []rune, i int) bool {
	return i > 0 && i < len(runes)-1 && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1])
}

// isJoiner reports intra-word punctuation that OCR engines tend to emit
// inconsistently; dropping it joins the halves ("e-mail" == "email").
func isJoiner(r rune) bool {
	switch r {
	case '-', '\'', '\u2019', '\u00ad':
		return true
	}
	return false
}
