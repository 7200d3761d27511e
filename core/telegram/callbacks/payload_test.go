package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := map[string]struct {
		cb      *tele.Callback
		unique  string
		payload string
	}{
		"nil":                 {nil, "", ""},
		"raw with payload":    {&tele.Callback{Data: "\fquote_del|12|3"}, "quote_del", "12|3"},
		"raw without payload": {&tele.Callback{Data: "\ffinish"}, "finish", ""},
		"already split":       {&tele.Callback{Unique: "quotes", Data: "2"}, "quotes", "2"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			u, p := Parse(tc.cb)
			assert.Equal(t, tc.unique, u)
			assert.Equal(t, tc.payload, p)
		})
	}
}

func TestPayloadFields(t *testing.T) {
	p := Join("12", "3")
	assert.Equal(t, "12|3", p)

	id, err := Int64At(p, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	page, err := IntAt(p, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	_, err = IntAt(p, 2)
	assert.Error(t, err)
	_, err = Int64At("abc", 0)
	assert.Error(t, err)
	assert.Equal(t, "", Field("", 0))
	assert.Equal(t, "", Field("a|b", -1))
}
