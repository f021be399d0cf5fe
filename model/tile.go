package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TileType string

const (
	TileTypeRoad     TileType = "road"
	TileTypePlaza    TileType = "plaza"
	TileTypeDistrict TileType = "district"
	TileTypeOwned    TileType = "owned"
	TileTypeUnowned  TileType = "unowned"
)

func (t TileType) Valid() bool {
	switch t {
	case TileTypeRoad, TileTypePlaza, TileTypeDistrict, TileTypeOwned, TileTypeUnowned:
		return true
	}
	return false
}

func init() {
	// 价格以数字形式输出，与 v1/v2 接口保持一致
	decimal.MarshalJSONWithoutQuotes = true
}

// Tile 一个世界格子。Top/Left/TopLeft 表示与北/西/西北邻居属于同一地块，渲染时不留缝
type Tile struct {
	ID        string           `json:"id"`
	X         int              `json:"x"`
	Y         int              `json:"y"`
	Type      TileType         `json:"type"`
	Top       bool             `json:"top"`
	Left      bool             `json:"left"`
	TopLeft   bool             `json:"topLeft"`
	UpdatedAt int64            `json:"updatedAt"`
	Name      string           `json:"name,omitempty"`
	Owner     string           `json:"owner,omitempty"`
	EstateID  string           `json:"estateId,omitempty"`
	TokenID   string           `json:"tokenId,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	ExpiresAt int64            `json:"expiresAt,omitempty"` // unix 秒
	// 只用于 parcel/estate 详情与 token 元数据，不出现在 tiles 接口
	Description string `json:"-"`
}

func (t Tile) Coord() Coord { return Coord{X: t.X, Y: t.Y} }

// IsExpired 挂单价格是否已过期（没有过期时间视为未过期）
func (t Tile) IsExpired(now time.Time) bool {
	return t.ExpiresAt > 0 && t.ExpiresAt < now.Unix()
}

// OnSale 有价格且未过期
func (t Tile) OnSale(now time.Time) bool {
	return t.Price != nil && !t.IsExpired(now)
}

// TileFields v2 接口 include/exclude 可选字段
var TileFields = []string{
	"id", "x", "y", "type", "top", "left", "topLeft", "updatedAt",
	"name", "owner", "estateId", "tokenId", "price", "expiresAt",
}

// Field 按字段名取值，配合 include/exclude 做投影
func (t Tile) Field(name string) (interface{}, bool) {
	switch name {
	case "id":
		return t.ID, true
	case "x":
		return t.X, true
	case "y":
		return t.Y, true
	case "type":
		return t.Type, true
	case "top":
		return t.Top, true
	case "left":
		return t.Left, true
	case "topLeft":
		return t.TopLeft, true
	case "updatedAt":
		return t.UpdatedAt, true
	case "name":
		return t.Name, t.Name != ""
	case "owner":
		return t.Owner, t.Owner != ""
	case "estateId":
		return t.EstateID, t.EstateID != ""
	case "tokenId":
		return t.TokenID, t.TokenID != ""
	case "price":
		return t.Price, t.Price != nil
	case "expiresAt":
		return t.ExpiresAt, t.ExpiresAt > 0
	}
	return nil, false
}
