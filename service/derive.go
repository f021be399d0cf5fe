package service

import (
	"sort"

	"atlas/api/model"
)

// derive 由 tile 集合推导出完整快照：边界标记、parcel、estate 与 token 索引。
// tiles 与 dissolved 的所有权转交给返回的快照
func derive(tiles map[string]model.Tile, dissolved map[string]model.DissolvedEstate, updatedAt int64, opts MapOptions) *model.Snapshot {
	for id, t := range tiles {
		t.Top = sameEstate(tiles, t, t.X, t.Y+1)
		t.Left = sameEstate(tiles, t, t.X-1, t.Y)
		t.TopLeft = sameEstate(tiles, t, t.X-1, t.Y+1)
		tiles[id] = t
	}

	snap := &model.Snapshot{
		Tiles:            tiles,
		Parcels:          make(map[string]model.Parcel, len(tiles)),
		Estates:          make(map[string]model.Estate),
		DissolvedEstates: dissolved,
		Tokens:           make(map[string]model.Token, len(tiles)),
		UpdatedAt:        updatedAt,
	}

	for id, t := range tiles {
		tokenID := t.TokenID
		if tokenID == "" {
			tokenID = model.EncodeTokenID(t.X, t.Y)
		}
		snap.Parcels[id] = model.Parcel{
			ID:          id,
			X:           t.X,
			Y:           t.Y,
			TokenID:     tokenID,
			Owner:       t.Owner,
			Name:        t.Name,
			Description: t.Description,
			EstateID:    t.EstateID,
			Price:       t.Price,
			UpdatedAt:   t.UpdatedAt,
		}
		if opts.LandContractAddress != "" {
			snap.Tokens[model.TokenKey(opts.LandContractAddress, tokenID)] = model.Token{
				ContractAddress: opts.LandContractAddress,
				TokenID:         tokenID,
				Kind:            model.TokenKindParcel,
				Ref:             id,
			}
		}

		if t.EstateID == "" {
			continue
		}
		e := snap.Estates[t.EstateID]
		if e.ID == "" {
			e = model.Estate{ID: t.EstateID, TokenID: t.EstateID}
		}
		e.Tiles = append(e.Tiles, t.Coord())
		if t.UpdatedAt >= e.UpdatedAt {
			e.UpdatedAt = t.UpdatedAt
			e.Owner = t.Owner
			e.Name = t.Name
			e.Description = t.Description
		}
		snap.Estates[t.EstateID] = e
	}

	for id, e := range snap.Estates {
		sort.Slice(e.Tiles, func(i, j int) bool {
			if e.Tiles[i].X != e.Tiles[j].X {
				return e.Tiles[i].X < e.Tiles[j].X
			}
			return e.Tiles[i].Y < e.Tiles[j].Y
		})
		e.Size = len(e.Tiles)
		snap.Estates[id] = e
		// 重新出现的 estate 不再是解散状态
		delete(snap.DissolvedEstates, id)

		if opts.EstateContractAddress != "" {
			snap.Tokens[model.TokenKey(opts.EstateContractAddress, e.TokenID)] = model.Token{
				ContractAddress: opts.EstateContractAddress,
				TokenID:         e.TokenID,
				Kind:            model.TokenKindEstate,
				Ref:             id,
			}
		}
	}
	return snap
}

// 邻居存在且与 t 属于同一个 estate
func sameEstate(tiles map[string]model.Tile, t model.Tile, x, y int) bool {
	if t.EstateID == "" {
		return false
	}
	n, ok := tiles[model.CoordsToID(x, y)]
	return ok && n.EstateID == t.EstateID
}

// trackDissolved 上一个快照里有、新快照里没有的 estate 记为已解散
func trackDissolved(prev, next *model.Snapshot) {
	for id, e := range prev.Estates {
		if _, ok := next.Estates[id]; ok {
			continue
		}
		next.DissolvedEstates[id] = model.DissolvedEstate{
			ID:          id,
			Name:        e.Name,
			Owner:       e.Owner,
			DissolvedAt: next.UpdatedAt,
		}
	}
}
