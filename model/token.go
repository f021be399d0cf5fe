package model

import (
	"fmt"
	"math/big"
	"strings"
)

type TokenKind string

const (
	TokenKindParcel TokenKind = "parcel"
	TokenKindEstate TokenKind = "estate"
)

// Token NFT 索引：(合约地址, tokenId) -> parcel 或 estate
type Token struct {
	ContractAddress string    `json:"contractAddress"`
	TokenID         string    `json:"tokenId"`
	Kind            TokenKind `json:"kind"`
	Ref             string    `json:"ref"` // parcel 坐标 id 或 estate id
}

// TokenKey 合约地址统一小写
func TokenKey(address, tokenID string) string {
	return strings.ToLower(address) + "/" + tokenID
}

// TokenMetadata ERC-721 metadata
type TokenMetadata struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Image           string           `json:"image"`
	ExternalURL     string           `json:"external_url"`
	BackgroundColor string           `json:"background_color"`
	Attributes      []TokenAttribute `json:"attributes"`
}

type TokenAttribute struct {
	TraitType   string      `json:"trait_type"`
	Value       interface{} `json:"value"`
	DisplayType string      `json:"display_type,omitempty"`
}

var (
	two128 = new(big.Int).Lsh(big.NewInt(1), 128)
	two127 = new(big.Int).Lsh(big.NewInt(1), 127)
	mask   = new(big.Int).Sub(two128, big.NewInt(1))
)

// EncodeTokenID LAND 合约的 tokenId 编码：x、y 各取 128 位补码，tokenId = x<<128 | y
func EncodeTokenID(x, y int) string {
	hi := toUint128(int64(x))
	lo := toUint128(int64(y))
	id := new(big.Int).Lsh(hi, 128)
	id.Or(id, lo)
	return id.String()
}

// DecodeTokenID EncodeTokenID 的逆运算
func DecodeTokenID(tokenID string) (int, int, error) {
	id, ok := new(big.Int).SetString(tokenID, 10)
	if !ok || id.Sign() < 0 || id.BitLen() > 256 {
		return 0, 0, fmt.Errorf("invalid token id %q", tokenID)
	}
	hi := new(big.Int).Rsh(id, 128)
	lo := new(big.Int).And(id, mask)
	x, err := fromUint128(hi)
	if err != nil {
		return 0, 0, err
	}
	y, err := fromUint128(lo)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func toUint128(v int64) *big.Int {
	n := big.NewInt(v)
	if n.Sign() < 0 {
		n.Add(n, two128)
	}
	return n
}

func fromUint128(n *big.Int) (int, error) {
	v := new(big.Int).Set(n)
	if v.Cmp(two127) >= 0 {
		v.Sub(v, two128)
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("coordinate out of range: %s", v)
	}
	return int(v.Int64()), nil
}
