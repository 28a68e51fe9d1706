package convert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat64(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"float64", 1.5, 1.5},
		{"float32", float32(2.5), 2.5},
		{"int", 7, 7},
		{"int64", int64(-3), -3},
		{"string", "64123.456", 64123.456},
		{"string with spaces", " 0.0001 ", 0.0001},
		{"bad string", "abc", 0},
		{"json number", json.Number("12.75"), 12.75},
		{"unsupported", struct{}{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToFloat64(tc.in))
		})
	}
}
