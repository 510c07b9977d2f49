package jsonfield_test

import (
	"testing"

	"github.com/Amund211/censusoverlay/internal/jsonfield"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func field(t *testing.T, doc string) gjson.Result {
	t.Helper()
	require.True(t, gjson.Valid(doc), "invalid test document %s", doc)
	return gjson.Get(doc, "v")
}

func TestStrings(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		doc       string
		str       string
		strOK     bool
		trimmed   string
		trimmedOK bool
		text      string
		textOK    bool
	}{
		{name: "plain", doc: `{"v":"Wrel"}`, str: "Wrel", strOK: true, trimmed: "Wrel", trimmedOK: true, text: "Wrel", textOK: true},
		{name: "padded", doc: `{"v":"  VS  "}`, str: "  VS  ", strOK: true, trimmed: "VS", trimmedOK: true, text: "  VS  ", textOK: true},
		{name: "blank", doc: `{"v":"   "}`, str: "   ", strOK: true, text: "   ", textOK: true},
		{name: "number", doc: `{"v":5428010618015189713}`, text: "5428010618015189713", textOK: true},
		{name: "null", doc: `{"v":null}`},
		{name: "missing", doc: `{}`},
		{name: "object", doc: `{"v":{"en":"Gauss Rifle"}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			r := field(t, c.doc)

			str, ok := jsonfield.Str(r)
			require.Equal(t, c.strOK, ok)
			require.Equal(t, c.str, str)

			trimmed, ok := jsonfield.TrimmedStr(r)
			require.Equal(t, c.trimmedOK, ok)
			require.Equal(t, c.trimmed, trimmed)

			text, ok := jsonfield.TextLoose(r)
			require.Equal(t, c.textOK, ok)
			require.Equal(t, c.text, text)
		})
	}
}

func TestStringList(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		doc  string
		want []string
	}{
		{name: "single", doc: `{"v":"kill.png"}`, want: []string{"kill.png"}},
		{name: "single blank", doc: `{"v":" "}`, want: []string{}},
		{name: "array", doc: `{"v":[" a.png ","","b.png",3,null]}`, want: []string{"a.png", "b.png"}},
		{name: "missing", doc: `{}`, want: []string{}},
		{name: "number", doc: `{"v":1}`, want: []string{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, c.want, jsonfield.StringList(field(t, c.doc)))
		})
	}
}

func TestBool(t *testing.T) {
	t.Parallel()

	cases := []struct {
		doc    string
		want   bool
		wantOK bool
	}{
		{doc: `{"v":true}`, want: true, wantOK: true},
		{doc: `{"v":false}`, want: false, wantOK: true},
		{doc: `{"v":"true"}`},
		{doc: `{"v":1}`},
		{doc: `{}`},
	}
	for _, c := range cases {
		t.Run(c.doc, func(t *testing.T) {
			t.Parallel()

			v, ok := jsonfield.Bool(field(t, c.doc))
			require.Equal(t, c.wantOK, ok)
			require.Equal(t, c.want, v)
		})
	}
}

func TestNumbers(t *testing.T) {
	t.Parallel()

	t.Run("Float", func(t *testing.T) {
		t.Parallel()

		v, ok := jsonfield.Float(field(t, `{"v":1.5}`))
		require.True(t, ok)
		require.InDelta(t, 1.5, v, 1e-9)

		_, ok = jsonfield.Float(field(t, `{"v":"1.5"}`))
		require.False(t, ok)
	})

	t.Run("FloatLoose", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			doc    string
			want   float64
			wantOK bool
		}{
			{doc: `{"v":1700000000}`, want: 1700000000, wantOK: true},
			{doc: `{"v":"1700000000"}`, want: 1700000000, wantOK: true},
			{doc: `{"v":"1700000000.25"}`, want: 1700000000.25, wantOK: true},
			{doc: `{"v":"soon"}`},
			{doc: `{"v":true}`},
		}
		for _, c := range cases {
			t.Run(c.doc, func(t *testing.T) {
				t.Parallel()

				v, ok := jsonfield.FloatLoose(field(t, c.doc))
				require.Equal(t, c.wantOK, ok)
				require.InDelta(t, c.want, v, 1e-9)
			})
		}
	})

	t.Run("Uint", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			doc    string
			want   uint64
			wantOK bool
		}{
			{doc: `{"v":3000}`, want: 3000, wantOK: true},
			{doc: `{"v":0}`, want: 0, wantOK: true},
			{doc: `{"v":-1}`},
			{doc: `{"v":1.5}`},
			{doc: `{"v":"3000"}`},
		}
		for _, c := range cases {
			t.Run(c.doc, func(t *testing.T) {
				t.Parallel()

				v, ok := jsonfield.Uint(field(t, c.doc))
				require.Equal(t, c.wantOK, ok)
				require.Equal(t, c.want, v)
			})
		}
	})

	t.Run("IntLoose", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			doc    string
			want   int64
			wantOK bool
		}{
			{doc: `{"v":2}`, want: 2, wantOK: true},
			{doc: `{"v":" 3 "}`, want: 3, wantOK: true},
			{doc: `{"v":"-4"}`, want: -4, wantOK: true},
			{doc: `{"v":"NC"}`},
			{doc: `{"v":2.5}`},
			{doc: `{"v":null}`},
		}
		for _, c := range cases {
			t.Run(c.doc, func(t *testing.T) {
				t.Parallel()

				v, ok := jsonfield.IntLoose(field(t, c.doc))
				require.Equal(t, c.wantOK, ok)
				require.Equal(t, c.want, v)
			})
		}
	})

	t.Run("Uint32Loose", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			doc    string
			want   uint32
			wantOK bool
		}{
			{doc: `{"v":8}`, want: 8, wantOK: true},
			{doc: `{"v":"8"}`, want: 8, wantOK: true},
			{doc: `{"v":" 8"}`},
			{doc: `{"v":4294967296}`},
			{doc: `{"v":-1}`},
			{doc: `{}`},
		}
		for _, c := range cases {
			t.Run(c.doc, func(t *testing.T) {
				t.Parallel()

				v, ok := jsonfield.Uint32Loose(field(t, c.doc))
				require.Equal(t, c.wantOK, ok)
				require.Equal(t, c.want, v)
			})
		}
	})
}
