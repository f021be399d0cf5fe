package render

// TilePadding 格子间缝隙随缩放变化
func TilePadding(size float64) float64 {
	switch {
	case size < 7:
		return 0.5
	case size < 12:
		return 1
	case size < 18:
		return 1.5
	default:
		return 2
	}
}

// tileOffset 合并相邻格子时向邻居延伸的像素
const tileOffset = 1

type TileShape struct {
	X, Y    float64 // 格子右下角的像素坐标
	Size    float64
	Padding float64
	Offset  float64
	Scale   float64
	Top     bool
	Left    bool
	TopLeft bool
}

// TileRects 计算一个格子需要填充的矩形。
// 与北/西邻居同属一个地块时向上/向左多画 Offset 像素，盖住两格之间的缝
func TileRects(s TileShape) []Rect {
	t := s.Size
	if s.Scale > 0 {
		t = s.Size * s.Scale
	}
	x, y, p, o := s.X, s.Y, s.Padding, s.Offset

	switch {
	case !s.Top && !s.Left:
		return []Rect{{X: x - t + p, Y: y - t + p, W: t - p, H: t - p}}
	case s.Top && s.Left && s.TopLeft:
		return []Rect{{X: x - t - o, Y: y - t - o, W: t + o, H: t + o}}
	}

	var rects []Rect
	if s.Left {
		rects = append(rects, Rect{X: x - t - o, Y: y - t + p, W: t + o, H: t - p})
	}
	if s.Top {
		rects = append(rects, Rect{X: x - t + p, Y: y - t - o, W: t - p, H: t + o})
	}
	return rects
}
