package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TileRow 链上索引器镜像到 MySQL 的 tile 行
type TileRow struct {
	ID        uint64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Coords    string           `gorm:"column:coords;type:varchar(32);uniqueIndex;not null" json:"coords"`
	X         int              `gorm:"column:x" json:"x"`
	Y         int              `gorm:"column:y" json:"y"`
	Type      string           `gorm:"column:type;type:varchar(16)" json:"type"`
	Owner     string           `gorm:"column:owner;type:varchar(64)" json:"owner"`
	Name      string           `gorm:"column:name" json:"name"`
	Desc      string           `gorm:"column:description;type:text" json:"description"`
	EstateID  string           `gorm:"column:estate_id;type:varchar(80)" json:"estate_id"`
	TokenID   string           `gorm:"column:token_id;type:varchar(80)" json:"token_id"`
	Price     *decimal.Decimal `gorm:"column:price;type:decimal(38,18)" json:"price"`
	ExpiresAt int64            `gorm:"column:expires_at" json:"expires_at"`
	UpdatedAt int64            `gorm:"column:updated_at;index;autoUpdateTime:false" json:"updated_at"`
	SyncedAt  time.Time        `gorm:"column:synced_at;autoUpdateTime" json:"synced_at"`
}

func (TileRow) TableName() string {
	return "atlas_tiles"
}

func (r TileRow) ToTile() Tile {
	t := Tile{
		ID:          CoordsToID(r.X, r.Y),
		X:           r.X,
		Y:           r.Y,
		Type:        TileType(r.Type),
		Owner:       r.Owner,
		Name:        r.Name,
		Description: r.Desc,
		EstateID:    r.EstateID,
		TokenID:     r.TokenID,
		Price:       r.Price,
		ExpiresAt:   r.ExpiresAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if !t.Type.Valid() {
		t.Type = TileTypeUnowned
		if t.Owner != "" {
			t.Type = TileTypeOwned
		}
	}
	return t
}
