package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
)

func TestJSONDecoder(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []fields
	}{
		{
			name: "single object",
			data: `{"a":1}`,
			want: []fields{{f("a", float64(1))}},
		},
		{
			name: "array keeps order",
			data: `[{"a":1},{"a":2}]`,
			want: []fields{{f("a", float64(1))}, {f("a", float64(2))}},
		},
		{
			name: "object key order preserved",
			data: `{"z":"last","a":"first","m":null}`,
			want: []fields{{f("z", "last"), f("a", "first"), f("m", nil)}},
		},
		{
			name: "scalar array elements are wrapped",
			data: `[1,"two",{"three":3}]`,
			want: []fields{
				{f("value", float64(1))},
				{f("value", "two")},
				{f("three", float64(3))},
			},
		},
		{
			name: "top-level scalar is wrapped",
			data: ` "hello" `,
			want: []fields{{f("value", "hello")}},
		},
		{
			name: "nested values kept",
			data: `{"tags":["x","y"],"meta":{"k":"v"}}`,
			want: []fields{{f("tags", []any{"x", "y"}), f("meta", map[string]any{"k": "v"})}},
		},
		{
			name: "empty array",
			data: `[]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSONDecoder{}.Decode([]byte(tt.data), nil)
			require.NoError(t, err)
			assertRecords(t, tt.want, got)
		})
	}
}

func TestJSONDecoderInvalid(t *testing.T) {
	for _, data := range []string{``, `{"a":`, `[1,]`} {
		_, err := JSONDecoder{}.Decode([]byte(data), nil)
		require.Error(t, err, data)
		assert.ErrorIs(t, err, common.ErrParse)
	}
}
