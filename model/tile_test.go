package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTileOnSale(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	price := decimal.NewFromInt(1500)

	tile := Tile{Price: &price}
	if !tile.OnSale(now) {
		t.Error("tile with price and no expiry should be on sale")
	}
	tile.ExpiresAt = now.Unix() - 1
	if tile.OnSale(now) {
		t.Error("expired price should not be on sale")
	}
	tile.ExpiresAt = now.Unix() + 60
	if !tile.OnSale(now) {
		t.Error("future expiry should be on sale")
	}
	if (Tile{}).OnSale(now) {
		t.Error("tile without price should not be on sale")
	}
}

func TestToLegacyTile(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	price := decimal.RequireFromString("12.5")
	cases := []struct {
		tile Tile
		want int
	}{
		{Tile{Type: TileTypeDistrict}, LegacyTypeDistrict},
		{Tile{Type: TileTypeRoad}, LegacyTypeRoad},
		{Tile{Type: TileTypePlaza}, LegacyTypePlaza},
		{Tile{Type: TileTypeOwned}, LegacyTypeOwned},
		{Tile{Type: TileTypeUnowned}, LegacyTypeUnowned},
		{Tile{Type: TileTypeOwned, Price: &price}, LegacyTypeOnSale},
		{Tile{Type: TileTypeOwned, Price: &price, ExpiresAt: now.Unix() + 60}, LegacyTypeOnSale},
		{Tile{Type: TileTypeOwned, Price: &price, ExpiresAt: now.Unix() - 60}, LegacyTypeOwned},
	}
	for _, c := range cases {
		if got := ToLegacyTile(c.tile, now).Type; got != c.want {
			t.Errorf("legacy type for %s: got %d, want %d", c.tile.Type, got, c.want)
		}
	}

	lt := ToLegacyTile(Tile{X: 1, Y: 2, Type: TileTypeOwned, Top: true, EstateID: "7", Price: &price}, now)
	raw, err := json.Marshal(lt)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":10,"x":1,"y":2,"top":1,"estate_id":"7","price":12.5}`
	if string(raw) != want {
		t.Errorf("legacy json:\n got %s\nwant %s", raw, want)
	}
}

func TestTileField(t *testing.T) {
	tile := Tile{ID: "1,2", X: 1, Y: 2, Owner: "0xabc"}
	if v, ok := tile.Field("owner"); !ok || v != "0xabc" {
		t.Errorf("owner field: %v %v", v, ok)
	}
	if _, ok := tile.Field("name"); ok {
		t.Error("empty name should be reported absent")
	}
	if _, ok := tile.Field("bogus"); ok {
		t.Error("unknown field should be absent")
	}
}
