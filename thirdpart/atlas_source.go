package thirdpart

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"atlas/api/model"
)

// estate 内 parcel 的 nft owner 是 EstateRegistry 合约，真实持有人和挂单在 estate 的 nft 上
const nftFields = `
  updatedAt
  tokenId
  searchParcelX
  searchParcelY
  owner { address }
  activeOrder { price expiresAt }
  parcel {
    data { name description }
    estate {
      tokenId
      data { name description }
      nft { owner { address } activeOrder { price expiresAt } updatedAt }
    }
  }`

// 子列表默认只返回 100 条，estate 可能更大
const estateParcelsLimit = 1000

const parcelsQuery = `query Parcels($first: Int!, $skip: Int!) {
  nfts(first: $first, skip: $skip, orderBy: id, where: { category: parcel }) {` + nftFields + `
  }
}`

const updatedParcelsQuery = `query UpdatedParcels($first: Int!, $skip: Int!, $since: BigInt!) {
  nfts(first: $first, skip: $skip, orderBy: updatedAt, where: { category: parcel, updatedAt_gt: $since }) {` + nftFields + `
  }
}`

// estate 改名、转移时其 parcel 的 nft 不会更新，需要单独按 estate 展开
var updatedEstatesQuery = `query UpdatedEstates($first: Int!, $skip: Int!, $since: BigInt!) {
  nfts(first: $first, skip: $skip, orderBy: updatedAt, where: { category: estate, updatedAt_gt: $since }) {
    updatedAt
    estate { parcels(first: ` + strconv.Itoa(estateParcelsLimit) + `) { nft {` + nftFields + `
    } } }
  }
}`

const dissolvedEstatesQuery = `query DissolvedEstates($first: Int!, $skip: Int!) {
  nfts(first: $first, skip: $skip, orderBy: id, where: { category: estate, searchEstateSize: 0 }) {
    tokenId
    name
    updatedAt
    owner { address }
  }
}`

type subgraphAccount struct {
	Address string `json:"address"`
}

type subgraphData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type subgraphOrder struct {
	Price     string `json:"price"`
	ExpiresAt string `json:"expiresAt"`
}

type nftRecord struct {
	UpdatedAt     string           `json:"updatedAt"`
	TokenID       string           `json:"tokenId"`
	SearchParcelX string           `json:"searchParcelX"`
	SearchParcelY string           `json:"searchParcelY"`
	Owner         *subgraphAccount `json:"owner"`
	ActiveOrder   *subgraphOrder   `json:"activeOrder"`
	Parcel        *struct {
		Data   *subgraphData `json:"data"`
		Estate *struct {
			TokenID string        `json:"tokenId"`
			Data    *subgraphData `json:"data"`
			NFT     *struct {
				Owner       *subgraphAccount `json:"owner"`
				ActiveOrder *subgraphOrder   `json:"activeOrder"`
				UpdatedAt   string           `json:"updatedAt"`
			} `json:"nft"`
		} `json:"estate"`
	} `json:"parcel"`
}

type nftPage struct {
	NFTs []nftRecord `json:"nfts"`
}

type estatePage struct {
	NFTs []struct {
		UpdatedAt string `json:"updatedAt"`
		Estate    *struct {
			Parcels []struct {
				NFT *nftRecord `json:"nft"`
			} `json:"parcels"`
		} `json:"estate"`
	} `json:"nfts"`
}

type dissolvedPage struct {
	NFTs []struct {
		TokenID   string           `json:"tokenId"`
		Name      string           `json:"name"`
		UpdatedAt string           `json:"updatedAt"`
		Owner     *subgraphAccount `json:"owner"`
	} `json:"nfts"`
}

// SubgraphTileSource 从 marketplace subgraph 读取地块，实现全量、增量与已解散 estate 的拉取
type SubgraphTileSource struct {
	client   *SubgraphClient
	specials map[string]model.TileType
}

// NewSubgraphTileSource specials 为道路/广场/街区等特殊地块（coords id -> 类型）
func NewSubgraphTileSource(client *SubgraphClient, specials map[string]model.TileType) *SubgraphTileSource {
	if specials == nil {
		specials = map[string]model.TileType{}
	}
	return &SubgraphTileSource{client: client, specials: specials}
}

// FetchTiles 按预估总数并发拉取各页，最后一页仍满时继续顺序翻页
func (s *SubgraphTileSource) FetchTiles(ctx context.Context, onProgress func(float64)) ([]model.Tile, error) {
	batch := s.client.opts.BatchSize
	pages := (s.client.opts.ExpectedTiles + batch - 1) / batch
	if pages < 1 {
		pages = 1
	}

	var done atomic.Int64
	report := func(total int) {
		if onProgress != nil {
			onProgress(min(float64(done.Add(1))/float64(total)*100, 99))
		}
	}

	results := make([][]nftRecord, pages)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.client.opts.Concurrency)
	for i := 0; i < pages; i++ {
		i := i
		g.Go(func() error {
			var page nftPage
			vars := map[string]interface{}{"first": batch, "skip": i * batch}
			if err := s.client.Query(gctx, parcelsQuery, vars, &page); err != nil {
				return fmt.Errorf("fetch parcels page %d: %w", i, err)
			}
			results[i] = page.NFTs
			report(pages)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []nftRecord
	for _, r := range results {
		records = append(records, r...)
	}
	for skip, last := pages*batch, len(results[pages-1]); last == batch; skip += batch {
		var page nftPage
		vars := map[string]interface{}{"first": batch, "skip": skip}
		if err := s.client.Query(ctx, parcelsQuery, vars, &page); err != nil {
			return nil, fmt.Errorf("fetch parcels skip %d: %w", skip, err)
		}
		records = append(records, page.NFTs...)
		last = len(page.NFTs)
	}

	tiles, err := s.toTiles(records)
	if err != nil {
		return nil, err
	}
	if onProgress != nil {
		onProgress(100)
	}
	return tiles, nil
}

// FetchUpdatedTiles parcel 自身更新与所属 estate 更新都会带出 tile
func (s *SubgraphTileSource) FetchUpdatedTiles(ctx context.Context, since int64) ([]model.Tile, error) {
	batch := s.client.opts.BatchSize
	var (
		mu      sync.Mutex
		records []nftRecord
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for skip := 0; ; skip += batch {
			var page nftPage
			vars := map[string]interface{}{"first": batch, "skip": skip, "since": strconv.FormatInt(since, 10)}
			if err := s.client.Query(gctx, updatedParcelsQuery, vars, &page); err != nil {
				return fmt.Errorf("fetch updated parcels: %w", err)
			}
			mu.Lock()
			records = append(records, page.NFTs...)
			mu.Unlock()
			if len(page.NFTs) < batch {
				return nil
			}
		}
	})

	g.Go(func() error {
		for skip := 0; ; skip += batch {
			var page estatePage
			vars := map[string]interface{}{"first": batch, "skip": skip, "since": strconv.FormatInt(since, 10)}
			if err := s.client.Query(gctx, updatedEstatesQuery, vars, &page); err != nil {
				return fmt.Errorf("fetch updated estates: %w", err)
			}
			mu.Lock()
			for _, e := range page.NFTs {
				if e.Estate == nil {
					continue
				}
				for _, p := range e.Estate.Parcels {
					if p.NFT == nil {
						continue
					}
					rec := *p.NFT
					// estate 的更新时间更晚时以它为准，保证增量游标前进
					if parseInt64(e.UpdatedAt) > parseInt64(rec.UpdatedAt) {
						rec.UpdatedAt = e.UpdatedAt
					}
					records = append(records, rec)
				}
			}
			mu.Unlock()
			if len(page.NFTs) < batch {
				return nil
			}
		}
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s.toTiles(records)
}

func (s *SubgraphTileSource) FetchDissolvedEstates(ctx context.Context) ([]model.DissolvedEstate, error) {
	batch := s.client.opts.BatchSize
	var out []model.DissolvedEstate
	for skip := 0; ; skip += batch {
		var page dissolvedPage
		vars := map[string]interface{}{"first": batch, "skip": skip}
		if err := s.client.Query(ctx, dissolvedEstatesQuery, vars, &page); err != nil {
			return nil, fmt.Errorf("fetch dissolved estates: %w", err)
		}
		for _, n := range page.NFTs {
			d := model.DissolvedEstate{ID: n.TokenID, Name: n.Name, DissolvedAt: parseInt64(n.UpdatedAt)}
			if n.Owner != nil {
				d.Owner = n.Owner.Address
			}
			out = append(out, d)
		}
		if len(page.NFTs) < batch {
			return out, nil
		}
	}
}

// toTiles 同一坐标出现多次时保留 updatedAt 最新的一条
func (s *SubgraphTileSource) toTiles(records []nftRecord) ([]model.Tile, error) {
	byID := make(map[string]model.Tile, len(records))
	order := make([]string, 0, len(records))
	for _, r := range records {
		t, err := s.toTile(r)
		if err != nil {
			return nil, err
		}
		prev, seen := byID[t.ID]
		if !seen {
			order = append(order, t.ID)
		}
		if !seen || t.UpdatedAt >= prev.UpdatedAt {
			byID[t.ID] = t
		}
	}
	tiles := make([]model.Tile, 0, len(order))
	for _, id := range order {
		tiles = append(tiles, byID[id])
	}
	return tiles, nil
}

func (s *SubgraphTileSource) toTile(r nftRecord) (model.Tile, error) {
	x, err := strconv.Atoi(r.SearchParcelX)
	if err != nil {
		return model.Tile{}, fmt.Errorf("parcel %s: invalid x %q", r.TokenID, r.SearchParcelX)
	}
	y, err := strconv.Atoi(r.SearchParcelY)
	if err != nil {
		return model.Tile{}, fmt.Errorf("parcel %s: invalid y %q", r.TokenID, r.SearchParcelY)
	}

	t := model.Tile{
		ID:        model.CoordsToID(x, y),
		X:         x,
		Y:         y,
		TokenID:   r.TokenID,
		UpdatedAt: parseInt64(r.UpdatedAt),
	}
	if r.Owner != nil {
		t.Owner = r.Owner.Address
	}
	order := r.ActiveOrder
	if r.Parcel != nil {
		if r.Parcel.Data != nil {
			t.Name = r.Parcel.Data.Name
			t.Description = r.Parcel.Data.Description
		}
		if e := r.Parcel.Estate; e != nil {
			t.EstateID = e.TokenID
			if e.Data != nil {
				if e.Data.Name != "" {
					t.Name = e.Data.Name
				}
				if e.Data.Description != "" {
					t.Description = e.Data.Description
				}
			}
			if n := e.NFT; n != nil {
				if n.Owner != nil {
					t.Owner = n.Owner.Address
				}
				order = n.ActiveOrder
				if at := parseInt64(n.UpdatedAt); at > t.UpdatedAt {
					t.UpdatedAt = at
				}
			}
		}
	}
	if order != nil {
		price, err := decimal.NewFromString(order.Price)
		if err != nil {
			return model.Tile{}, fmt.Errorf("parcel %s: invalid price %q: %w", r.TokenID, order.Price, err)
		}
		// 价格以 wei 计
		price = price.Shift(-18)
		t.Price = &price
		t.ExpiresAt = normalizeExpiry(parseInt64(order.ExpiresAt))
	}

	switch special, ok := s.specials[t.ID]; {
	case ok:
		t.Type = special
	case t.Owner != "":
		t.Type = model.TileTypeOwned
	default:
		t.Type = model.TileTypeUnowned
	}
	return t, nil
}

// 旧订单的过期时间是毫秒
func normalizeExpiry(v int64) int64 {
	if v > 1e12 {
		return v / 1000
	}
	return v
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
