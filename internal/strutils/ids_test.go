package strutils_test

import (
	"testing"

	"github.com/Amund211/censusoverlay/internal/strutils"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCharacterID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input    string
		expected string
		ok       bool
	}{
		{input: "5428010618035323201", expected: "5428010618035323201", ok: true},
		{input: "  5428010618035323201\n", expected: "5428010618035323201", ok: true},
		{input: "0", ok: false},
		{input: " 0 ", ok: false},
		{input: "", ok: false},
		{input: "   ", ok: false},
	}

	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			t.Parallel()

			id, ok := strutils.NormalizeCharacterID(c.input)
			require.Equal(t, c.ok, ok)
			require.Equal(t, c.expected, id)
		})
	}
}

func TestCanonicalKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input    string
		expected string
	}{
		{input: "Headshot", expected: "headshot"},
		{input: "Revive Taken", expected: "revivetaken"},
		{input: "Squad Lead's Nightmare", expected: "squadleadsnightmare"},
		{input: "Kill_MAX", expected: "killmax"},
		{input: "Tank-Mine Kill", expected: "tankminekill"},
		{input: "Kill Ææ 1", expected: "kill1"},
		{input: "", expected: ""},
	}

	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, c.expected, strutils.CanonicalKey(c.input))
		})
	}
}
