package render

import "atlas/api/model"

// Background 地图背景色，也是格子之间缝隙的颜色
var Background = MustHex("#18141a")

type MapArgs struct {
	Width    int
	Height   int
	Size     int
	Center   model.Coord
	Pan      Pan
	Viewport Viewport
	Layers   []Layer
	Decals   []Decal
}

// RenderMap 先铺背景，再按图层顺序逐层绘制，后面的图层覆盖前面的；最后叠加贴图
func RenderMap(s Surface, args MapArgs) {
	s.FillRect(Rect{W: float64(args.Width), H: float64(args.Height)}, Background)

	size := float64(args.Size)
	padding := TilePadding(size)
	halfWidth := float64(args.Width) / 2
	halfHeight := float64(args.Height) / 2
	nw, se := args.Viewport.NW, args.Viewport.SE

	for _, layer := range args.Layers {
		for x := nw.X; x < se.X; x++ {
			for y := se.Y; y < nw.Y; y++ {
				paint, ok := layer.Resolve(x, y)
				if !ok {
					continue
				}
				offsetX, offsetY := cellOffset(args, x, y)
				halfSize := size / 2
				if paint.Scale > 0 {
					halfSize = size * paint.Scale / 2
				}
				rects := TileRects(TileShape{
					X:       halfWidth - offsetX + halfSize,
					Y:       halfHeight - offsetY + halfSize,
					Size:    size,
					Padding: padding,
					Offset:  tileOffset,
					Scale:   paint.Scale,
					Top:     paint.Top,
					Left:    paint.Left,
					TopLeft: paint.TopLeft,
				})
				for _, r := range rects {
					s.FillRect(r, paint.Color)
				}
			}
		}
	}

	RenderDecals(s, args)
}

// cellOffset 格子相对视口中心的像素偏移
func cellOffset(args MapArgs, x, y int) (float64, float64) {
	size := float64(args.Size)
	offsetX := float64(args.Center.X-x)*size + float64(args.Pan.X)
	offsetY := float64(y-args.Center.Y)*size + float64(args.Pan.Y)
	return offsetX, offsetY
}
