package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// v1 接口使用的数字类型码
const (
	LegacyTypeDistrict = 5
	LegacyTypeRoad     = 7
	LegacyTypePlaza    = 8
	LegacyTypeOwned    = 9
	LegacyTypeOnSale   = 10
	LegacyTypeUnowned  = 11
)

type LegacyTile struct {
	Type     int              `json:"type"`
	X        int              `json:"x"`
	Y        int              `json:"y"`
	Top      int              `json:"top,omitempty"`
	Left     int              `json:"left,omitempty"`
	TopLeft  int              `json:"topLeft,omitempty"`
	Owner    string           `json:"owner,omitempty"`
	Name     string           `json:"name,omitempty"`
	EstateID string           `json:"estate_id,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

// ToLegacyTile now 用于判断挂单是否过期，过期的挂单不算在售
func ToLegacyTile(t Tile, now time.Time) LegacyTile {
	lt := LegacyTile{
		Type:     legacyType(t, now),
		X:        t.X,
		Y:        t.Y,
		Owner:    t.Owner,
		Name:     t.Name,
		EstateID: t.EstateID,
		Price:    t.Price,
	}
	if t.Top {
		lt.Top = 1
	}
	if t.Left {
		lt.Left = 1
	}
	if t.TopLeft {
		lt.TopLeft = 1
	}
	return lt
}

func legacyType(t Tile, now time.Time) int {
	if t.OnSale(now) {
		return LegacyTypeOnSale
	}
	switch t.Type {
	case TileTypeDistrict:
		return LegacyTypeDistrict
	case TileTypeOwned:
		return LegacyTypeOwned
	case TileTypeUnowned:
		return LegacyTypeUnowned
	case TileTypePlaza:
		return LegacyTypePlaza
	case TileTypeRoad:
		return LegacyTypeRoad
	default:
		return -1
	}
}
