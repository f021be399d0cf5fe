package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas/api/model"
)

func newTestTokens(t *testing.T, m *MapService) *TokenService {
	t.Helper()
	s, err := NewTokenService(m, TokenOptions{
		LandContractAddress:   testLand,
		EstateContractAddress: testEstate,
		ServerURL:             "https://atlas.example/",
		MarketplaceURL:        "https://market.example",
		DissolvedEstateImage:  "https://ui.example/dissolved.png",
	})
	require.NoError(t, err)
	return s
}

func TestNewTokenServiceValidatesAddresses(t *testing.T) {
	_, err := NewTokenService(nil, TokenOptions{LandContractAddress: "nope", EstateContractAddress: testEstate})
	assert.Error(t, err)
}

func TestTokenAddressComparison(t *testing.T) {
	s := newTestTokens(t, nil)
	assert.True(t, s.IsLand(strings.ToLower(testLand)))
	assert.True(t, s.IsLand(testLand))
	assert.False(t, s.IsLand(testEstate))
	assert.True(t, s.IsEstate("0X959E104E1A4DB6317FA58F8295F586E1A978C297"))
	assert.False(t, s.IsLand("not-an-address"))
}

func TestParcelMetadata(t *testing.T) {
	named := tile(-5, 7, "0xa", "", 10)
	named.Name = "Genesis"
	named.Description = "first parcel"
	m := loadedMap(t, named, tile(1, 1, "", "", 10))
	s := newTestTokens(t, m)

	meta, err := s.Metadata(strings.ToLower(testLand), model.EncodeTokenID(-5, 7))
	require.NoError(t, err)
	assert.Equal(t, "Genesis", meta.Name)
	assert.Equal(t, "first parcel", meta.Description)
	assert.Equal(t, "https://atlas.example/v1/parcels/-5/7/map.png?size=24&width=1024&height=1024", meta.Image)
	assert.Equal(t, "https://market.example/contracts/"+strings.ToLower(testLand)+"/tokens/"+model.EncodeTokenID(-5, 7), meta.ExternalURL)
	require.Len(t, meta.Attributes, 2)
	assert.Equal(t, -5, meta.Attributes[0].Value)

	meta, err = s.Metadata(testLand, model.EncodeTokenID(1, 1))
	require.NoError(t, err)
	assert.Equal(t, "Parcel 1,1", meta.Name)
}

func TestEstateAndDissolvedMetadata(t *testing.T) {
	inEstate := tile(0, 0, "0xa", "12", 10)
	inEstate.Description = "two parcels"
	src := &fakeSource{
		tiles:  []model.Tile{inEstate, tile(0, 1, "0xa", "12", 9)},
		deltas: [][]model.Tile{{tile(0, 0, "0xa", "", 20), tile(0, 1, "0xa", "", 20)}},
	}
	m := newTestMap(src)
	require.NoError(t, m.BulkLoad(context.Background()))
	s := newTestTokens(t, m)

	meta, err := s.Metadata(testEstate, "12")
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Attributes[0].Value)
	assert.Equal(t, "two parcels", meta.Description)

	require.NoError(t, m.PollOnce(context.Background()))
	meta, err = s.Metadata(testEstate, "12")
	require.NoError(t, err)
	assert.Equal(t, "https://ui.example/dissolved.png", meta.Image)

	_, err = s.Metadata(testLand, "12")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMetadataNotReady(t *testing.T) {
	s := newTestTokens(t, newTestMap(&fakeSource{}))
	_, err := s.Metadata(testLand, "1")
	assert.ErrorIs(t, err, ErrNotReady)
}
