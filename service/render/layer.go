package render

import (
	"fmt"
	"image/color"
)

// PaintDescriptor 某一层对某个格子的绘制指令。Scale 为 0 表示 1
type PaintDescriptor struct {
	Color   color.RGBA
	Top     bool
	Left    bool
	TopLeft bool
	Scale   float64
}

// Layer 纯函数：世界坐标 -> 绘制指令，ok=false 表示该层不绘制此格
type Layer interface {
	Resolve(x, y int) (PaintDescriptor, bool)
}

type LayerFunc func(x, y int) (PaintDescriptor, bool)

func (f LayerFunc) Resolve(x, y int) (PaintDescriptor, bool) { return f(x, y) }

// MustHex 解析 "#rrggbb"，用于包级颜色常量
func MustHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func ParseHex(s string) (color.RGBA, error) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
