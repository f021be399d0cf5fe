package render

import (
	"image"
	"image/color"
	"testing"

	"atlas/api/model"
)

type fillCall struct {
	Rect  Rect
	Color color.Color
}

// recorder 记录绘制调用，不做栅格化
type recorder struct {
	fills  []fillCall
	images []Rect
}

func (r *recorder) FillRect(rect Rect, c color.Color) {
	r.fills = append(r.fills, fillCall{Rect: rect, Color: c})
}

func (r *recorder) DrawImage(_ image.Image, rect Rect) {
	r.images = append(r.images, rect)
}

func solid(c color.RGBA) Layer {
	return LayerFunc(func(x, y int) (PaintDescriptor, bool) {
		return PaintDescriptor{Color: c}, true
	})
}

func at(x, y int, paint PaintDescriptor) Layer {
	return LayerFunc(func(px, py int) (PaintDescriptor, bool) {
		if px == x && py == y {
			return paint, true
		}
		return PaintDescriptor{}, false
	})
}

func mapArgs(width, height, size int, center model.Coord, layers ...Layer) MapArgs {
	return MapArgs{
		Width:    width,
		Height:   height,
		Size:     size,
		Center:   center,
		Viewport: GetViewport(ViewportArgs{Width: width, Height: height, Size: size, Center: center, Padding: 1}),
		Layers:   layers,
	}
}

func TestRenderMapLaterLayerWins(t *testing.T) {
	a := MustHex("#3D3A46")
	b := MustHex("#ff0044")
	center := model.Coord{X: 5, Y: 5}
	args := mapArgs(100, 100, 20, center, at(5, 5, PaintDescriptor{Color: a}), at(5, 5, PaintDescriptor{Color: b}))

	s := NewImageSurface(100, 100)
	RenderMap(s, args)

	// (5,5) 是中心格，像素中心在 (50,50)
	if got := s.Image().RGBAAt(50, 50); got != b {
		t.Fatalf("pixel at center = %v, want %v", got, b)
	}
}

func TestRenderMapNoPaintShowsBackground(t *testing.T) {
	none := LayerFunc(func(x, y int) (PaintDescriptor, bool) { return PaintDescriptor{}, false })
	rec := &recorder{}
	RenderMap(rec, mapArgs(100, 100, 20, model.Coord{}, none))
	if len(rec.fills) != 1 || rec.fills[0].Color != Background {
		t.Fatalf("expected only the background fill, got %d fills", len(rec.fills))
	}

	s := NewImageSurface(100, 100)
	RenderMap(s, mapArgs(100, 100, 20, model.Coord{}, none))
	if got := s.Image().RGBAAt(10, 90); got != Background {
		t.Errorf("pixel = %v, want background", got)
	}
}

func TestRenderMapLayerMajorOrder(t *testing.T) {
	base := MustHex("#09080A")
	ring := MustHex("#ff0044")
	rec := &recorder{}
	args := mapArgs(100, 100, 20, model.Coord{}, solid(base), at(0, 0, PaintDescriptor{Color: ring, Scale: 1.4}))
	RenderMap(rec, args)

	last := rec.fills[len(rec.fills)-1]
	if last.Color != ring {
		t.Fatalf("ring must be drawn after every base cell, last fill color %v", last.Color)
	}
	cells := args.Viewport.Area
	if len(rec.fills) != 1+cells+1 {
		t.Errorf("fills = %d, want %d", len(rec.fills), cells+2)
	}
}

func TestRenderMapScaledRingEnclosesFill(t *testing.T) {
	rec := &recorder{}
	args := mapArgs(200, 200, 20, model.Coord{},
		at(0, 0, PaintDescriptor{Color: MustHex("#ff0044"), Scale: 1.4}),
		at(0, 0, PaintDescriptor{Color: MustHex("#ff9990"), Scale: 1.2}),
	)
	RenderMap(rec, args)
	stroke, fill := rec.fills[1].Rect, rec.fills[2].Rect
	if !(stroke.X < fill.X && stroke.MaxX() == fill.MaxX()+2) {
		t.Errorf("stroke %+v should enclose fill %+v", stroke, fill)
	}
	if stroke.W <= fill.W || stroke.H <= fill.H {
		t.Errorf("stroke %+v should be larger than fill %+v", stroke, fill)
	}
}
