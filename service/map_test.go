package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"atlas/api/model"
)

const (
	testLand   = "0xF87E31492Faf9A91B02Ee0dEAAd50d51d56D5d4d"
	testEstate = "0x959e104E1a4dB6317fA58F8295F586e1A978c297"
)

type fakeSource struct {
	mu     sync.Mutex
	tiles  []model.Tile
	deltas [][]model.Tile
	err    error
	sinces []int64
	// 前 failPolls 次增量拉取返回错误
	failPolls int
}

func (f *fakeSource) FetchTiles(ctx context.Context, onProgress func(float64)) ([]model.Tile, error) {
	if f.err != nil {
		return nil, f.err
	}
	onProgress(50)
	return f.tiles, nil
}

func (f *fakeSource) FetchUpdatedTiles(ctx context.Context, since int64) ([]model.Tile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinces = append(f.sinces, since)
	if f.err != nil {
		return nil, f.err
	}
	if f.failPolls > 0 {
		f.failPolls--
		return nil, errors.New("subgraph timeout")
	}
	if len(f.deltas) == 0 {
		return nil, nil
	}
	d := f.deltas[0]
	f.deltas = f.deltas[1:]
	return d, nil
}

type fakeDissolvedSource struct {
	*fakeSource
	dissolved []model.DissolvedEstate
}

func (f fakeDissolvedSource) FetchDissolvedEstates(ctx context.Context) ([]model.DissolvedEstate, error) {
	return f.dissolved, nil
}

func tile(x, y int, owner, estate string, updatedAt int64) model.Tile {
	t := model.Tile{X: x, Y: y, Owner: owner, EstateID: estate, UpdatedAt: updatedAt, Type: model.TileTypeUnowned}
	if owner != "" {
		t.Type = model.TileTypeOwned
	}
	return t
}

func newTestMap(src TileSource, observers ...Observer) *MapService {
	return NewMapService(src, MapOptions{
		LandContractAddress:   testLand,
		EstateContractAddress: testEstate,
		RefreshInterval:       10 * time.Millisecond,
	}, observers...)
}

// 快照内部引用必须都能解析
func checkIntegrity(t *testing.T, s *model.Snapshot) {
	t.Helper()
	for id, tl := range s.Tiles {
		if _, ok := s.Parcels[id]; !ok {
			t.Errorf("tile %s has no parcel", id)
		}
		if tl.EstateID != "" {
			e, ok := s.Estates[tl.EstateID]
			if !ok {
				t.Errorf("tile %s references missing estate %s", id, tl.EstateID)
				continue
			}
			found := false
			for _, c := range e.Tiles {
				found = found || c == tl.Coord()
			}
			if !found {
				t.Errorf("estate %s does not list tile %s", e.ID, id)
			}
		}
	}
	for id, e := range s.Estates {
		if len(e.Tiles) == 0 || e.Size != len(e.Tiles) {
			t.Errorf("estate %s has size %d and %d tiles", id, e.Size, len(e.Tiles))
		}
		for _, c := range e.Tiles {
			if s.Tiles[c.ID()].EstateID != id {
				t.Errorf("estate %s lists tile %s owned by another estate", id, c)
			}
		}
	}
	for key, tok := range s.Tokens {
		switch tok.Kind {
		case model.TokenKindParcel:
			if _, ok := s.Parcels[tok.Ref]; !ok {
				t.Errorf("token %s references missing parcel %s", key, tok.Ref)
			}
		case model.TokenKindEstate:
			if _, ok := s.Estates[tok.Ref]; !ok {
				t.Errorf("token %s references missing estate %s", key, tok.Ref)
			}
		}
	}
}

func TestNotReadyBeforeLoad(t *testing.T) {
	m := newTestMap(&fakeSource{})
	if m.IsReady() {
		t.Fatal("fresh service must not be ready")
	}
	if _, err := m.Tiles(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Tiles err = %v, want ErrNotReady", err)
	}
	if _, err := m.Parcel(0, 0); !errors.Is(err, ErrNotReady) {
		t.Errorf("Parcel err = %v, want ErrNotReady", err)
	}
	if err := m.PollOnce(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("PollOnce err = %v, want ErrNotReady", err)
	}
}

func TestBulkLoad(t *testing.T) {
	price := decimal.NewFromInt(1500)
	onSale := tile(2, 0, "", "", 120)
	onSale.Price = &price

	src := &fakeSource{tiles: []model.Tile{
		tile(0, 0, "0xa", "7", 100),
		tile(0, 1, "0xa", "7", 110),
		tile(1, 1, "0xa", "7", 90),
		tile(1, 0, "0xb", "", 105),
		onSale,
	}}
	var events []Event
	m := newTestMap(src, func(e Event) { events = append(events, e) })

	if err := m.BulkLoad(context.Background()); err != nil {
		t.Fatalf("BulkLoad: %v", err)
	}
	if !m.IsReady() {
		t.Fatal("expected ready after bulk load")
	}
	snap, _ := m.Snapshot()
	checkIntegrity(t, snap)

	if snap.UpdatedAt != 120 {
		t.Errorf("UpdatedAt = %d, want 120", snap.UpdatedAt)
	}
	if len(snap.Tiles) != 5 || len(snap.Parcels) != 5 {
		t.Errorf("got %d tiles and %d parcels, want 5 each", len(snap.Tiles), len(snap.Parcels))
	}

	e, err := m.Estate("7")
	if err != nil {
		t.Fatalf("Estate: %v", err)
	}
	wantTiles := []model.Coord{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	if diff := cmp.Diff(wantTiles, e.Tiles); diff != "" {
		t.Errorf("estate tiles (-want +got):\n%s", diff)
	}
	if e.Size != 3 || e.UpdatedAt != 110 {
		t.Errorf("estate size=%d updatedAt=%d", e.Size, e.UpdatedAt)
	}

	// (0,0) 的北邻 (0,1) 同属 estate 7，西、西北为空
	origin, _ := snap.Tile(0, 0)
	if !origin.Top || origin.Left || origin.TopLeft {
		t.Errorf("(0,0) flags top=%v left=%v topLeft=%v", origin.Top, origin.Left, origin.TopLeft)
	}
	ne, _ := snap.Tile(1, 1)
	if !ne.Left || ne.Top {
		t.Errorf("(1,1) flags top=%v left=%v", ne.Top, ne.Left)
	}
	plain, _ := snap.Tile(1, 0)
	if plain.Top || plain.Left || plain.TopLeft {
		t.Errorf("tile outside estates must not merge: %+v", plain)
	}

	p, err := m.Parcel(0, 1)
	if err != nil || p.EstateID != "7" || p.TokenID != model.EncodeTokenID(0, 1) {
		t.Errorf("Parcel(0,1) = %+v, %v", p, err)
	}
	if _, err := m.Parcel(9, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing parcel err = %v", err)
	}

	tok, err := m.Token(testLand, model.EncodeTokenID(2, 0))
	if err != nil || tok.Kind != model.TokenKindParcel || tok.Ref != "2,0" {
		t.Errorf("land token = %+v, %v", tok, err)
	}
	tok, err = m.Token(testEstate, "7")
	if err != nil || tok.Kind != model.TokenKindEstate {
		t.Errorf("estate token = %+v, %v", tok, err)
	}

	var sawReady bool
	for _, ev := range events {
		if ev.Type == EventProgress && (ev.Progress < 0 || ev.Progress > 100) {
			t.Errorf("progress %v out of range", ev.Progress)
		}
		sawReady = sawReady || ev.Type == EventReady
	}
	if !sawReady {
		t.Error("missing ready event")
	}
}

func TestBulkLoadFailureStaysNotReady(t *testing.T) {
	m := newTestMap(&fakeSource{err: errors.New("indexer down")})
	if err := m.Run(context.Background()); err == nil {
		t.Fatal("expected Run to return the bulk load error")
	}
	if m.IsReady() {
		t.Error("service must stay not ready")
	}
}

func TestPollOnceEmptyDeltaKeepsSnapshot(t *testing.T) {
	src := &fakeSource{tiles: []model.Tile{tile(0, 0, "0xa", "", 100)}}
	m := newTestMap(src)
	if err := m.BulkLoad(context.Background()); err != nil {
		t.Fatal(err)
	}
	before, _ := m.Snapshot()
	if err := m.PollOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	after, _ := m.Snapshot()
	if before != after {
		t.Error("empty delta must not publish a new snapshot")
	}
	if src.sinces[0] != 100 {
		t.Errorf("polled since %d, want 100", src.sinces[0])
	}
}

func TestPollOnceAppliesDelta(t *testing.T) {
	src := &fakeSource{
		tiles: []model.Tile{tile(0, 0, "0xa", "", 100), tile(0, 1, "0xb", "", 100)},
		deltas: [][]model.Tile{
			{tile(0, 1, "0xa", "", 150)},
			{tile(5, 5, "0xc", "", 120)},
		},
	}
	var updates []Event
	m := newTestMap(src, func(e Event) {
		if e.Type == EventUpdate {
			updates = append(updates, e)
		}
	})
	if err := m.BulkLoad(context.Background()); err != nil {
		t.Fatal(err)
	}
	old, _ := m.Snapshot()

	if err := m.PollOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	cur, _ := m.Snapshot()
	if cur.UpdatedAt != 150 {
		t.Errorf("UpdatedAt = %d, want 150", cur.UpdatedAt)
	}
	if got := cur.Tiles["0,1"].Owner; got != "0xa" {
		t.Errorf("owner = %q, want 0xa", got)
	}
	if got := old.Tiles["0,1"].Owner; got != "0xb" {
		t.Errorf("published snapshot was mutated: owner = %q", got)
	}
	checkIntegrity(t, cur)

	// 增量里的时间戳更旧也不能让 UpdatedAt 倒退
	if err := m.PollOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	cur, _ = m.Snapshot()
	if cur.UpdatedAt != 150 {
		t.Errorf("UpdatedAt went to %d, want 150", cur.UpdatedAt)
	}
	if _, ok := cur.Tiles["5,5"]; !ok {
		t.Error("new tile not applied")
	}
	if len(updates) != 2 || updates[0].Count != 1 {
		t.Errorf("update events = %s", spew.Sdump(updates))
	}
}

func TestPollOnceFailureKeepsSnapshot(t *testing.T) {
	src := &fakeSource{tiles: []model.Tile{tile(0, 0, "0xa", "", 100)}}
	m := newTestMap(src)
	if err := m.BulkLoad(context.Background()); err != nil {
		t.Fatal(err)
	}
	before, _ := m.Snapshot()
	src.err = errors.New("timeout")
	if err := m.PollOnce(context.Background()); err == nil {
		t.Fatal("expected poll error")
	}
	after, _ := m.Snapshot()
	if before != after || !m.IsReady() {
		t.Error("failed poll must keep the previous snapshot")
	}
}

func TestDissolvedEstates(t *testing.T) {
	src := &fakeSource{
		tiles: []model.Tile{tile(0, 0, "0xa", "7", 100), tile(1, 0, "0xa", "7", 100)},
		deltas: [][]model.Tile{
			{tile(0, 0, "0xa", "", 200), tile(1, 0, "0xa", "", 200)},
			{tile(0, 0, "0xa", "7", 300)},
		},
	}
	m := NewMapService(fakeDissolvedSource{
		fakeSource: src,
		dissolved:  []model.DissolvedEstate{{ID: "3", DissolvedAt: 50}},
	}, MapOptions{EstateContractAddress: testEstate})

	if err := m.BulkLoad(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.DissolvedEstate("3"); err != nil {
		t.Errorf("dissolved estate from source: %v", err)
	}

	if err := m.PollOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Estate("7"); !errors.Is(err, ErrNotFound) {
		t.Errorf("estate 7 should be gone, err = %v", err)
	}
	d, err := m.DissolvedEstate("7")
	if err != nil || d.DissolvedAt != 200 || d.Owner != "0xa" {
		t.Errorf("DissolvedEstate(7) = %+v, %v", d, err)
	}

	if err := m.PollOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.DissolvedEstate("7"); !errors.Is(err, ErrNotFound) {
		t.Error("re-formed estate must not stay dissolved")
	}
	if _, err := m.DissolvedEstate("3"); err != nil {
		t.Error("dissolved estates are carried across polls")
	}
}

func TestRunPollsUntilCancelled(t *testing.T) {
	src := &fakeSource{
		tiles:  []model.Tile{tile(0, 0, "0xa", "", 100)},
		deltas: [][]model.Tile{{tile(0, 0, "0xb", "", 101)}},
	}
	m := newTestMap(src)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		at, err := m.LastUpdatedAt()
		if err == nil && at == 101 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("delta was never applied")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v after cancel", err)
	}
}

func TestRunKeepsPollingAfterFailure(t *testing.T) {
	src := &fakeSource{
		tiles:     []model.Tile{tile(0, 0, "0xa", "", 100)},
		deltas:    [][]model.Tile{{tile(0, 0, "0xb", "", 108)}},
		failPolls: 2,
	}
	var mu sync.Mutex
	var failures []error
	m := newTestMap(src, func(e Event) {
		if e.Type == EventError {
			mu.Lock()
			failures = append(failures, e.Err)
			mu.Unlock()
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		at, err := m.LastUpdatedAt()
		if err == nil && at == 108 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("polling did not resume after failures")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v after cancel", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(failures) != 2 {
		t.Errorf("error events = %s", spew.Sdump(failures))
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	for i, since := range src.sinces[:3] {
		if since != 100 {
			t.Errorf("poll %d since = %d, want 100", i, since)
		}
	}
	tl, _ := m.Tiles()
	if tl["0,0"].Owner != "0xb" {
		t.Errorf("owner = %q after recovery, want 0xb", tl["0,0"].Owner)
	}
}
