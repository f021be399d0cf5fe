package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/semaphore"

	"atlas/api/config"
	"atlas/api/model"
	"atlas/api/service/render"
)

// MapRequest 一次地图渲染的参数，取值范围由 HTTP 层保证
type MapRequest struct {
	Width      int
	Height     int
	Size       int
	Center     model.Coord
	Selected   []model.Coord
	ShowOnSale bool
}

type ImageService struct {
	maps         *MapService
	decals       []render.Decal
	sem          *semaphore.Weighted
	miniTileSize int
	now          func() time.Time
}

func NewImageService(maps *MapService, decals []render.Decal, concurrency int64, miniTileSize int) *ImageService {
	if concurrency <= 0 {
		concurrency = 1
	}
	if miniTileSize <= 0 {
		miniTileSize = 4
	}
	return &ImageService{
		maps:         maps,
		decals:       decals,
		sem:          semaphore.NewWeighted(concurrency),
		miniTileSize: miniTileSize,
		now:          time.Now,
	}
}

// Render 渲染地图并以 PNG 写出
func (s *ImageService) Render(ctx context.Context, w io.Writer, req MapRequest) error {
	snap, err := s.maps.Snapshot()
	if err != nil {
		return err
	}

	layers := []render.Layer{BaseLayer(snap.Tiles, req.ShowOnSale, s.now())}
	layers = append(layers, SelectionLayers(req.Selected)...)

	args := render.MapArgs{
		Width:  req.Width,
		Height: req.Height,
		Size:   req.Size,
		Center: req.Center,
		Viewport: render.GetViewport(render.ViewportArgs{
			Width:   req.Width,
			Height:  req.Height,
			Size:    req.Size,
			Center:  req.Center,
			Padding: 1,
		}),
		Layers: layers,
		Decals: s.decals,
	}
	return s.draw(ctx, w, args)
}

// RenderPNG Render 的字节版本，便于放进响应缓存
func (s *ImageService) RenderPNG(ctx context.Context, req MapRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Render(ctx, &buf, req); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MiniMap 整个世界的缩略图，每个 tile 固定 miniTileSize 像素
func (s *ImageService) MiniMap(ctx context.Context, snap *model.Snapshot) ([]byte, error) {
	return s.renderWorld(ctx, snap, []render.Layer{BaseLayer(snap.Tiles, false, s.now())}, s.decals)
}

// EstateMiniMap 只突出 estate 的世界缩略图
func (s *ImageService) EstateMiniMap(ctx context.Context, snap *model.Snapshot) ([]byte, error) {
	return s.renderWorld(ctx, snap, []render.Layer{EstateLayer(snap.Tiles)}, nil)
}

// EstateSelection estate 的全部格子及其中心；estate 没有格子时返回 ErrNotFound
func (s *ImageService) EstateSelection(id string) ([]model.Coord, model.Coord, error) {
	e, err := s.maps.Estate(id)
	if err != nil {
		return nil, model.Coord{}, err
	}
	if len(e.Tiles) == 0 {
		return nil, model.Coord{}, ErrNotFound
	}
	return e.Tiles, EstateCenter(e.Tiles), nil
}

// EstateCenter 各轴分别取中位数
func EstateCenter(tiles []model.Coord) model.Coord {
	if len(tiles) == 0 {
		return model.Coord{}
	}
	xs := make([]int, len(tiles))
	ys := make([]int, len(tiles))
	for i, c := range tiles {
		xs[i], ys[i] = c.X, c.Y
	}
	sort.Ints(xs)
	sort.Ints(ys)
	return model.Coord{X: xs[len(xs)/2], Y: ys[len(ys)/2]}
}

func (s *ImageService) renderWorld(ctx context.Context, snap *model.Snapshot, layers []render.Layer, decals []render.Decal) ([]byte, error) {
	lo, hi, ok := snap.Bounds()
	if !ok {
		lo, hi = model.Coord{}, model.Coord{}
	}
	size := s.miniTileSize
	cols := hi.X - lo.X + 1
	rows := hi.Y - lo.Y + 1

	// 偶数行列时中心落在两格之间，用半格平移补齐
	var pan render.Pan
	if cols%2 == 0 {
		pan.X = size / 2
	}
	if rows%2 == 0 {
		pan.Y = -size / 2
	}

	args := render.MapArgs{
		Width:  cols * size,
		Height: rows * size,
		Size:   size,
		Center: model.Coord{X: lo.X + (cols-1)/2, Y: lo.Y + (rows-1)/2},
		Pan:    pan,
		Viewport: render.Viewport{
			Width:  cols * size,
			Height: rows * size,
			Cols:   cols,
			Rows:   rows,
			NW:     model.Coord{X: lo.X, Y: hi.Y + 1},
			SE:     model.Coord{X: hi.X + 1, Y: lo.Y},
			Area:   cols * rows,
		},
		Layers: layers,
		Decals: decals,
	}

	var buf bytes.Buffer
	if err := s.draw(ctx, &buf, args); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ImageService) draw(ctx context.Context, w io.Writer, args render.MapArgs) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	surface := render.NewImageSurface(args.Width, args.Height)
	render.RenderMap(surface, args)
	if err := surface.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// LoadDecals 读取世界配置里声明的贴图
func LoadDecals(world *config.World) ([]render.Decal, error) {
	decals := make([]render.Decal, 0, len(world.Decals))
	for _, d := range world.Decals {
		nw, err := model.ParseCoord(d.NW)
		if err != nil {
			return nil, fmt.Errorf("decal %s: %w", d.Path, err)
		}
		se, err := model.ParseCoord(d.SE)
		if err != nil {
			return nil, fmt.Errorf("decal %s: %w", d.Path, err)
		}
		img, err := decodeImage(d.Path)
		if err != nil {
			return nil, fmt.Errorf("decal %s: %w", d.Path, err)
		}
		decals = append(decals, render.Decal{Image: img, NW: nw, SE: se})
	}
	return decals, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
