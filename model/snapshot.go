package model

// Snapshot 某一时刻全部实体的一致视图；发布后只读，任何修改都会生成新的 Snapshot
type Snapshot struct {
	Tiles            map[string]Tile
	Parcels          map[string]Parcel
	Estates          map[string]Estate
	DissolvedEstates map[string]DissolvedEstate
	Tokens           map[string]Token
	UpdatedAt        int64
}

func (s *Snapshot) Tile(x, y int) (Tile, bool) {
	t, ok := s.Tiles[CoordsToID(x, y)]
	return t, ok
}

// Bounds 所有 tile 的外接矩形；没有 tile 时 ok=false
func (s *Snapshot) Bounds() (lo, hi Coord, ok bool) {
	for _, t := range s.Tiles {
		if !ok {
			lo, hi, ok = t.Coord(), t.Coord(), true
			continue
		}
		if t.X < lo.X {
			lo.X = t.X
		}
		if t.Y < lo.Y {
			lo.Y = t.Y
		}
		if t.X > hi.X {
			hi.X = t.X
		}
		if t.Y > hi.Y {
			hi.Y = t.Y
		}
	}
	return
}
