package serial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{input: "42\x00", want: 42},
		{input: "0", want: 0},
		{input: "x", want: 0},
		{input: "", want: 0},
		{input: "  \t7", want: 7},
		{input: "+15", want: 15},
		{input: "-15", want: -15},
		{input: "--1", want: 0},
		{input: "- 1", want: 0},
		{input: "12x34", want: 12},
		{input: "9\x0099", want: 9},
		{input: "99999999999999999999999", want: math.MaxInt},
		{input: "-99999999999999999999999", want: math.MinInt},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.want, ParseInt([]byte(tt.input)))
		})
	}
}
