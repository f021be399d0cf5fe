package model

import "github.com/shopspring/decimal"

// Parcel 面向用户的地块，一一对应一个 Tile
type Parcel struct {
	ID          string           `json:"id"`
	X           int              `json:"x"`
	Y           int              `json:"y"`
	TokenID     string           `json:"tokenId"`
	Owner       string           `json:"owner,omitempty"`
	Name        string           `json:"name,omitempty"`
	Description string           `json:"description,omitempty"`
	EstateID    string           `json:"estateId,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	UpdatedAt   int64            `json:"updatedAt"`
}

type Estate struct {
	ID          string  `json:"id"`
	TokenID     string  `json:"tokenId"`
	Owner       string  `json:"owner,omitempty"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Tiles       []Coord `json:"tiles"`
	Size        int     `json:"size"`
	UpdatedAt   int64   `json:"updatedAt"`
}

// DissolvedEstate 已解散的 estate，只保留最后已知的信息用于链接解析
type DissolvedEstate struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Owner       string `json:"owner,omitempty"`
	DissolvedAt int64  `json:"dissolvedAt"`
}
