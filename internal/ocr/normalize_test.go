package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: " \n\t  ", want: ""},
		{name: "case and whitespace", in: "  Invoice\n\tTOTAL   100  ", want: "invoice total 100"},
		{name: "punctuation splits", in: "Invoice; Total:100!", want: "invoice total 100"},
		{name: "hyphen joins", in: "e-mail re-scan", want: "email rescan"},
		{name: "decimal separators kept", in: "Total: 1,000.50 EUR.", want: "total 1,000.50 eur"},
		{name: "trailing period dropped", in: "Paid 100.", want: "paid 100"},
		{name: "symbols dropped", in: "$100 + tax", want: "100 tax"},
		{name: "symbols join words", in: "a+b x=y <tag>", want: "ab xy tag"},
		{name: "percent splits like punctuation", in: "50%off", want: "50 off"},
		{name: "ligatures and full width", in: "ﬁnal ＩＮＶＯＩＣＥ", want: "final invoice"},
		{name: "accents kept", in: "Café  Über", want: "café über"},
		{name: "line wrapped layout", in: "invoice\r\n\r\ntotal\f100", want: "invoice total 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Invoice; Total:100!", "Total: 1,000.50 EUR.", "ﬁnal ＩＮＶＯＩＣＥ"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}
