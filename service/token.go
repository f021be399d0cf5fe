package service

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"atlas/api/model"
)

type TokenOptions struct {
	LandContractAddress   string
	EstateContractAddress string
	ServerURL             string
	MarketplaceURL        string
	DissolvedEstateImage  string
}

// TokenService 生成 LAND / ESTATE 的 ERC-721 metadata
type TokenService struct {
	maps   *MapService
	opts   TokenOptions
	land   common.Address
	estate common.Address
}

func NewTokenService(maps *MapService, opts TokenOptions) (*TokenService, error) {
	for _, a := range []string{opts.LandContractAddress, opts.EstateContractAddress} {
		if !common.IsHexAddress(a) {
			return nil, fmt.Errorf("invalid contract address %q", a)
		}
	}
	opts.ServerURL = strings.TrimRight(opts.ServerURL, "/")
	opts.MarketplaceURL = strings.TrimRight(opts.MarketplaceURL, "/")
	return &TokenService{
		maps:   maps,
		opts:   opts,
		land:   common.HexToAddress(opts.LandContractAddress),
		estate: common.HexToAddress(opts.EstateContractAddress),
	}, nil
}

// IsLand 地址比较不区分大小写（含 EIP-55 校验和格式）
func (s *TokenService) IsLand(address string) bool {
	return common.IsHexAddress(address) && common.HexToAddress(address) == s.land
}

func (s *TokenService) IsEstate(address string) bool {
	return common.IsHexAddress(address) && common.HexToAddress(address) == s.estate
}

// Metadata 按合约地址和 tokenId 生成 metadata；ESTATE 合约下已解散的 estate 也能解析
func (s *TokenService) Metadata(address, tokenID string) (model.TokenMetadata, error) {
	if !common.IsHexAddress(address) {
		return model.TokenMetadata{}, ErrNotFound
	}
	snap, err := s.maps.Snapshot()
	if err != nil {
		return model.TokenMetadata{}, err
	}

	token, ok := snap.Tokens[model.TokenKey(address, tokenID)]
	if !ok {
		if s.IsEstate(address) {
			if d, ok := snap.DissolvedEstates[tokenID]; ok {
				return s.dissolvedMetadata(d), nil
			}
		}
		return model.TokenMetadata{}, ErrNotFound
	}

	switch token.Kind {
	case model.TokenKindParcel:
		p, ok := snap.Parcels[token.Ref]
		if !ok {
			return model.TokenMetadata{}, ErrNotFound
		}
		return s.parcelMetadata(p), nil
	case model.TokenKindEstate:
		e, ok := snap.Estates[token.Ref]
		if !ok {
			return model.TokenMetadata{}, ErrNotFound
		}
		return s.estateMetadata(e), nil
	}
	return model.TokenMetadata{}, ErrNotFound
}

func (s *TokenService) parcelMetadata(p model.Parcel) model.TokenMetadata {
	name := p.Name
	if name == "" {
		name = fmt.Sprintf("Parcel %d,%d", p.X, p.Y)
	}
	attrs := []model.TokenAttribute{
		{TraitType: "X", Value: p.X, DisplayType: "number"},
		{TraitType: "Y", Value: p.Y, DisplayType: "number"},
	}
	if p.EstateID != "" {
		attrs = append(attrs, model.TokenAttribute{TraitType: "Estate", Value: p.EstateID})
	}
	return model.TokenMetadata{
		ID:              p.TokenID,
		Name:            name,
		Description:     p.Description,
		Image:           fmt.Sprintf("%s/v1/parcels/%d/%d/map.png?size=24&width=1024&height=1024", s.opts.ServerURL, p.X, p.Y),
		ExternalURL:     s.marketplaceURL(s.opts.LandContractAddress, p.TokenID),
		BackgroundColor: "000000",
		Attributes:      attrs,
	}
}

func (s *TokenService) estateMetadata(e model.Estate) model.TokenMetadata {
	name := e.Name
	if name == "" {
		name = "Estate"
	}
	return model.TokenMetadata{
		ID:              e.TokenID,
		Name:            name,
		Description:     e.Description,
		Image:           fmt.Sprintf("%s/v1/estates/%s/map.png?size=24&width=1024&height=1024", s.opts.ServerURL, e.ID),
		ExternalURL:     s.marketplaceURL(s.opts.EstateContractAddress, e.TokenID),
		BackgroundColor: "000000",
		Attributes: []model.TokenAttribute{
			{TraitType: "Size", Value: e.Size, DisplayType: "number"},
		},
	}
}

func (s *TokenService) dissolvedMetadata(d model.DissolvedEstate) model.TokenMetadata {
	name := d.Name
	if name == "" {
		name = "Estate"
	}
	return model.TokenMetadata{
		ID:              d.ID,
		Name:            name,
		Description:     "This Estate was dissolved",
		Image:           s.opts.DissolvedEstateImage,
		ExternalURL:     s.marketplaceURL(s.opts.EstateContractAddress, d.ID),
		BackgroundColor: "000000",
		Attributes:      []model.TokenAttribute{},
	}
}

func (s *TokenService) marketplaceURL(contract, tokenID string) string {
	return fmt.Sprintf("%s/contracts/%s/tokens/%s", s.opts.MarketplaceURL, strings.ToLower(contract), tokenID)
}
