package weaponprovider_test

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/Amund211/censusoverlay/internal/adapters/censusapi"
	"github.com/Amund211/censusoverlay/internal/adapters/weaponprovider"
	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockedHttpClient struct {
	t           *testing.T
	expectedURL string
	statusCode  int
	body        string
	err         error
}

func (m *mockedHttpClient) Do(req *http.Request) (*http.Response, error) {
	require.Equal(m.t, m.expectedURL, req.URL.String())
	require.Equal(m.t, "censusoverlay/0.1.0 (+https://github.com/Amund211/censusoverlay)", req.Header.Get("User-Agent"))

	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, m.err
}

func ptr[T any](v T) *T {
	return &v
}

func TestCensusWeaponProvider(t *testing.T) {
	t.Parallel()

	const expectedURL = "https://census.daybreakgames.com/s:example/get/ps2:v2/item?item_id=7214&c:resolve=item_type&c:show=item_id,name.en,item_type_id"

	newProvider := func(t *testing.T, statusCode int, body string) weaponprovider.WeaponProvider {
		t.Helper()

		client, err := censusapi.NewClient(&mockedHttpClient{
			t:           t,
			expectedURL: expectedURL,
			statusCode:  statusCode,
			body:        body,
		}, "s:example", time.Now, time.After)
		require.NoError(t, err)

		provider, err := weaponprovider.NewCensusWeaponProvider(client)
		require.NoError(t, err)
		return provider
	}

	cases := []struct {
		name     string
		body     string
		expected domain.WeaponLookup
	}{
		{
			name:     "carbine is hsr eligible without an event",
			body:     `{"item_list":[{"item_id":"7214","name":{"en":"GD-7F"},"item_type_id":"26","item_type":{"name":"Carbine"}}],"returned":1}`,
			expected: domain.WeaponLookup{EventName: nil, HSREligible: true},
		},
		{
			name:     "knife",
			body:     `{"item_list":[{"item_id":"7214","name":{"en":"NS Firebug"},"item_type":{"name":"Knife"}}],"returned":1}`,
			expected: domain.WeaponLookup{EventName: ptr(domain.KnifeKill), HSREligible: true},
		},
		{
			name:     "grenade",
			body:     `{"item_list":[{"item_id":"7214","name":{"en":"Frag Grenade"},"item_type":{"name":"Explosive Grenade"}}],"returned":1}`,
			expected: domain.WeaponLookup{EventName: ptr(domain.NadeKill), HSREligible: false},
		},
		{
			name:     "missing item type",
			body:     `{"item_list":[{"item_id":"7214","name":{"en":"Something"}}],"returned":1}`,
			expected: domain.WeaponLookup{EventName: nil, HSREligible: false},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			provider := newProvider(t, 200, c.body)
			lookup, err := provider.GetWeapon(t.Context(), "7214")
			require.NoError(t, err)
			require.Equal(t, c.expected, lookup)
		})
	}

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, 200, `{"item_list":[],"returned":0}`)
		_, err := provider.GetWeapon(t.Context(), "7214")
		require.ErrorIs(t, err, domain.ErrWeaponNotFound)
	})

	t.Run("census error", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, 500, ``)
		_, err := provider.GetWeapon(t.Context(), "7214")
		require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)
		assert.NotErrorIs(t, err, domain.ErrWeaponNotFound)
	})
}
