package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Rect 浮点像素矩形，左上角 + 宽高
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Pixels 栅格化为整数像素区域，四舍五入到最近的像素边界
func (r Rect) Pixels() image.Rectangle {
	return image.Rect(px(r.X), px(r.Y), px(r.MaxX()), px(r.MaxY()))
}

func px(v float64) int { return int(math.Floor(v + 0.5)) }

// Surface 2D 绘制面
type Surface interface {
	FillRect(r Rect, c color.Color)
	DrawImage(img image.Image, r Rect)
}

// ImageSurface 基于 image.RGBA 的绘制面，可直接编码为 PNG
type ImageSurface struct {
	img *image.RGBA
}

func NewImageSurface(width, height int) *ImageSurface {
	return &ImageSurface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (s *ImageSurface) Image() *image.RGBA { return s.img }

func (s *ImageSurface) FillRect(r Rect, c color.Color) {
	draw.Draw(s.img, r.Pixels(), image.NewUniform(c), image.Point{}, draw.Src)
}

// DrawImage 缩放到目标矩形后叠加（保留贴图透明度）
func (s *ImageSurface) DrawImage(img image.Image, r Rect) {
	dst := r.Pixels()
	if dst.Empty() {
		return
	}
	xdraw.BiLinear.Scale(s.img, dst, img, img.Bounds(), xdraw.Over, nil)
}

func (s *ImageSurface) EncodePNG(w io.Writer) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, s.img)
}
