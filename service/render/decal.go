package render

import (
	"image"
	"math"

	"atlas/api/model"
)

// Decal 锚定在世界坐标上的图片（例如 logo），NW/SE 为图片覆盖的世界坐标角点
type Decal struct {
	Image image.Image
	NW    model.Coord
	SE    model.Coord
}

// Intersects 图片外接矩形与视口是否相交
func (d Decal) Intersects(v Viewport) bool {
	minX, maxX := min(d.NW.X, d.SE.X), max(d.NW.X, d.SE.X)
	minY, maxY := min(d.NW.Y, d.SE.Y), max(d.NW.Y, d.SE.Y)
	return minX <= v.SE.X && maxX >= v.NW.X && minY <= v.NW.Y && maxY >= v.SE.Y
}

// DecalRect 贴图在画布上的像素矩形，两个角点分别套用与格子相同的坐标变换
func DecalRect(d Decal, args MapArgs) Rect {
	size := float64(args.Size)
	halfWidth := float64(args.Width) / 2
	halfHeight := float64(args.Height) / 2
	halfSize := size / 2
	padding := TilePadding(size)

	nwOffsetX, nwOffsetY := cellOffset(args, d.NW.X, d.NW.Y)
	seOffsetX, seOffsetY := cellOffset(args, d.SE.X, d.SE.Y)

	nwX := halfWidth - nwOffsetX - halfSize + padding
	nwY := halfHeight - nwOffsetY - halfSize + padding
	seX := halfWidth - seOffsetX + halfSize
	seY := halfHeight - seOffsetY + halfSize

	return Rect{
		X: math.Min(nwX, seX),
		Y: math.Min(nwY, seY),
		W: math.Abs(nwX - seX),
		H: math.Abs(nwY - seY),
	}
}

func RenderDecals(s Surface, args MapArgs) {
	for _, d := range args.Decals {
		if d.Image == nil || !d.Intersects(args.Viewport) {
			continue
		}
		s.DrawImage(d.Image, DecalRect(d, args))
	}
}
