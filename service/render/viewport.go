// Package render turns a world-space viewport into pixels: viewport algebra,
// ordered paint layers, tile shapes with border merging and decal overlays.
package render

import (
	"math"

	"atlas/api/model"
)

// Pan 像素平移
type Pan struct {
	X int
	Y int
}

type ViewportArgs struct {
	Width   int // 像素
	Height  int // 像素
	Size    int // 单个 tile 的像素边长
	Center  model.Coord
	Padding int // 额外的 tile 边距，通常为 1
	Pan     *Pan
}

// Viewport 视口：NW 为左上角（x 最小、y 最大），SE 为右下角（x 最大、y 最小）
type Viewport struct {
	Width  int
	Height int
	Cols   int
	Rows   int
	NW     model.Coord
	SE     model.Coord
	Area   int
}

// Contains 是否落在 [nw, se) 的绘制范围内
func (v Viewport) Contains(x, y int) bool {
	return x >= v.NW.X && x < v.SE.X && y >= v.SE.Y && y < v.NW.Y
}

// GetViewport 像素视口换算为世界坐标的外接矩形。调用方需保证 Width/Height/Size > 0
func GetViewport(args ViewportArgs) Viewport {
	size := float64(args.Size)
	cols := int(math.Ceil(float64(args.Width)/size + float64(args.Padding)))
	rows := int(math.Ceil(float64(args.Height)/size + float64(args.Padding)))

	panX, panY := 0, 0
	if args.Pan != nil {
		panX = int(math.Ceil(float64(args.Pan.X) / size))
		panY = int(math.Ceil(float64(args.Pan.Y) / size))
	}

	halfCols := int(math.Ceil(float64(cols) / 2))
	halfRows := int(math.Ceil(float64(rows) / 2))

	nw := model.Coord{
		X: args.Center.X - halfCols + panX,
		Y: args.Center.Y + halfRows - panY,
	}
	se := model.Coord{
		X: args.Center.X + halfCols + panX,
		Y: args.Center.Y - halfRows - panY,
	}

	return Viewport{
		Width:  args.Width,
		Height: args.Height,
		Cols:   cols,
		Rows:   rows,
		NW:     nw,
		SE:     se,
		Area:   (se.X - nw.X) * (nw.Y - se.Y),
	}
}
