package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"atlas/api/model"
)

var (
	ErrNotReady = errors.New("map not ready")
	ErrNotFound = errors.New("not found")
)

// TileSource 地块数据来源（subgraph 或 MySQL 镜像）
type TileSource interface {
	// FetchTiles 全量拉取，onProgress 回报 [0,100] 的进度
	FetchTiles(ctx context.Context, onProgress func(float64)) ([]model.Tile, error)
	// FetchUpdatedTiles 拉取 updatedAt 严格大于 since 的 tile
	FetchUpdatedTiles(ctx context.Context, since int64) ([]model.Tile, error)
}

// DissolvedEstateFetcher 可选能力：全量加载时一并拉取已解散的 estate
type DissolvedEstateFetcher interface {
	FetchDissolvedEstates(ctx context.Context) ([]model.DissolvedEstate, error)
}

type MapOptions struct {
	LandContractAddress   string
	EstateContractAddress string
	RefreshInterval       time.Duration
}

// MapService 持有当前快照。只有 Run/BulkLoad/PollOnce 所在的单个 goroutine 写入，
// 读者每次请求只做一次原子读取，拿到的快照在发布后不再修改
type MapService struct {
	source    TileSource
	opts      MapOptions
	observers []Observer

	current atomic.Pointer[model.Snapshot]
}

func NewMapService(source TileSource, opts MapOptions, observers ...Observer) *MapService {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = time.Minute
	}
	return &MapService{source: source, opts: opts, observers: observers}
}

// Observe 追加观察者，需在 Run 之前调用
func (s *MapService) Observe(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *MapService) emit(e Event) {
	for _, o := range s.observers {
		o(e)
	}
}

// ------------------------------------------------------------
// 同步
// ------------------------------------------------------------

// Run 全量加载后按固定间隔轮询增量；间隔从上一次轮询结束开始计时。
// 全量加载失败直接返回错误，服务保持未就绪
func (s *MapService) Run(ctx context.Context) error {
	if err := s.BulkLoad(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(s.opts.RefreshInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			if err := s.PollOnce(ctx); err != nil && ctx.Err() == nil {
				s.emit(Event{Type: EventError, Err: err})
			}
			timer.Reset(s.opts.RefreshInterval)
		}
	}
}

func (s *MapService) BulkLoad(ctx context.Context) error {
	tiles, err := s.source.FetchTiles(ctx, func(p float64) {
		s.emit(Event{Type: EventProgress, Progress: clampProgress(p)})
	})
	if err != nil {
		return fmt.Errorf("bulk load tiles: %w", err)
	}

	dissolved := map[string]model.DissolvedEstate{}
	if f, ok := s.source.(DissolvedEstateFetcher); ok {
		list, err := f.FetchDissolvedEstates(ctx)
		if err != nil {
			return fmt.Errorf("bulk load dissolved estates: %w", err)
		}
		for _, d := range list {
			dissolved[d.ID] = d
		}
	}

	byID := make(map[string]model.Tile, len(tiles))
	var updatedAt int64
	for _, t := range tiles {
		t = normalizeTile(t)
		byID[t.ID] = t
		updatedAt = max(updatedAt, t.UpdatedAt)
	}

	snap := derive(byID, dissolved, updatedAt, s.opts)
	s.current.Store(snap)
	s.emit(Event{Type: EventProgress, Progress: 100})
	s.emit(Event{Type: EventReady, UpdatedAt: snap.UpdatedAt, Count: len(snap.Tiles)})
	return nil
}

// PollOnce 拉取一次增量。没有变化时快照保持不变（同一个指针）
func (s *MapService) PollOnce(ctx context.Context) error {
	cur := s.current.Load()
	if cur == nil {
		return ErrNotReady
	}

	delta, err := s.source.FetchUpdatedTiles(ctx, cur.UpdatedAt)
	if err != nil {
		return fmt.Errorf("poll updated tiles since %d: %w", cur.UpdatedAt, err)
	}
	if len(delta) == 0 {
		return nil
	}

	tiles := make(map[string]model.Tile, len(cur.Tiles)+len(delta))
	for id, t := range cur.Tiles {
		tiles[id] = t
	}
	updatedAt := cur.UpdatedAt
	changed := make([]model.Tile, 0, len(delta))
	for _, t := range delta {
		t = normalizeTile(t)
		tiles[t.ID] = t
		updatedAt = max(updatedAt, t.UpdatedAt)
		changed = append(changed, t)
	}

	dissolved := make(map[string]model.DissolvedEstate, len(cur.DissolvedEstates))
	for id, d := range cur.DissolvedEstates {
		dissolved[id] = d
	}

	next := derive(tiles, dissolved, updatedAt, s.opts)
	trackDissolved(cur, next)

	s.current.Store(next)
	s.emit(Event{Type: EventUpdate, UpdatedAt: next.UpdatedAt, Count: len(changed), Tiles: pickTiles(next, changed)})
	return nil
}

func normalizeTile(t model.Tile) model.Tile {
	t.ID = model.CoordsToID(t.X, t.Y)
	return t
}

// 事件里带上重新计算过边界标记的 tile
func pickTiles(s *model.Snapshot, changed []model.Tile) []model.Tile {
	out := make([]model.Tile, 0, len(changed))
	for _, t := range changed {
		out = append(out, s.Tiles[t.ID])
	}
	return out
}

func clampProgress(p float64) float64 {
	return min(max(p, 0), 100)
}

// ------------------------------------------------------------
// 读取
// ------------------------------------------------------------

func (s *MapService) IsReady() bool {
	return s.current.Load() != nil
}

// Snapshot 当前快照；一次请求内应只取一次，保证读到的数据彼此一致
func (s *MapService) Snapshot() (*model.Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap, nil
}

func (s *MapService) LastUpdatedAt() (int64, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return 0, err
	}
	return snap.UpdatedAt, nil
}

func (s *MapService) Tiles() (map[string]model.Tile, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Tiles, nil
}

func (s *MapService) Parcel(x, y int) (model.Parcel, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return model.Parcel{}, err
	}
	p, ok := snap.Parcels[model.CoordsToID(x, y)]
	if !ok {
		return model.Parcel{}, ErrNotFound
	}
	return p, nil
}

func (s *MapService) Estate(id string) (model.Estate, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return model.Estate{}, err
	}
	e, ok := snap.Estates[id]
	if !ok {
		return model.Estate{}, ErrNotFound
	}
	return e, nil
}

func (s *MapService) DissolvedEstate(id string) (model.DissolvedEstate, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return model.DissolvedEstate{}, err
	}
	d, ok := snap.DissolvedEstates[id]
	if !ok {
		return model.DissolvedEstate{}, ErrNotFound
	}
	return d, nil
}

func (s *MapService) Token(address, tokenID string) (model.Token, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return model.Token{}, err
	}
	t, ok := snap.Tokens[model.TokenKey(address, tokenID)]
	if !ok {
		return model.Token{}, ErrNotFound
	}
	return t, nil
}
