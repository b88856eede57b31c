package handler

import (
	"testing"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptNilString(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		want  *string
	}{
		{name: "Absent", input: `{}`},
		{name: "Null", input: `{"v":null}`, want: ptr("")},
		{name: "Value", input: `{"v":"gift wrap"}`, want: ptr("gift wrap")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var v OptNilString
			err := jx.DecodeStr(tc.input).Obj(func(d *jx.Decoder, key string) error {
				return v.Decode(d)
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Ptr())
		})
	}
}

func TestOptNilString_RejectsNonString(t *testing.T) {
	var v OptNilString
	err := jx.DecodeStr(`{"v":5}`).Obj(func(d *jx.Decoder, key string) error {
		return v.Decode(d)
	})
	assert.Error(t, err)
}

func ptr(s string) *string { return &s }
