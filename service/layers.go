package service

import (
	"hash/fnv"
	"image/color"
	"time"

	"atlas/api/model"
	"atlas/api/service/render"
)

var (
	colorDistrict = render.MustHex("#5054D4")
	colorPlaza    = render.MustHex("#70AC76")
	colorRoad     = render.MustHex("#716C7A")
	colorOwned    = render.MustHex("#3D3A46")
	colorUnowned  = render.MustHex("#09080A")
	colorOnSale   = render.MustHex("#1FBCFF")

	colorEmptyEven = render.MustHex("#110e13")
	colorEmptyOdd  = render.MustHex("#0d0b0e")

	colorSelectedStroke = render.MustHex("#ff0044")
	colorSelectedFill   = render.MustHex("#ff9990")
)

// 选中格子的描边与填充放大比例
const (
	selectedStrokeScale = 1.4
	selectedFillScale   = 1.2
)

var estatePalette = []color.RGBA{
	render.MustHex("#ff2d55"),
	render.MustHex("#ffbc5b"),
	render.MustHex("#34ce76"),
	render.MustHex("#1fbcff"),
	render.MustHex("#a524b3"),
	render.MustHex("#ff7439"),
}

func TileColor(t model.Tile) color.RGBA {
	switch t.Type {
	case model.TileTypeDistrict:
		return colorDistrict
	case model.TileTypePlaza:
		return colorPlaza
	case model.TileTypeRoad:
		return colorRoad
	case model.TileTypeOwned:
		return colorOwned
	default:
		return colorUnowned
	}
}

// 空位按棋盘格交替着色
func emptyColor(x, y int) color.RGBA {
	if (x+y)%2 == 0 {
		return colorEmptyEven
	}
	return colorEmptyOdd
}

// BaseLayer 地形底图。showOnSale 时挂单且未过期的 tile 高亮，过期判断以 now 为准
func BaseLayer(tiles map[string]model.Tile, showOnSale bool, now time.Time) render.Layer {
	return render.LayerFunc(func(x, y int) (render.PaintDescriptor, bool) {
		t, ok := tiles[model.CoordsToID(x, y)]
		if !ok {
			return render.PaintDescriptor{Color: emptyColor(x, y)}, true
		}
		c := TileColor(t)
		if showOnSale && t.OnSale(now) {
			c = colorOnSale
		}
		return render.PaintDescriptor{Color: c, Top: t.Top, Left: t.Left, TopLeft: t.TopLeft}, true
	})
}

// SelectionLayers 选中格子的描边层和填充层，没有选中时返回 nil
func SelectionLayers(selected []model.Coord) []render.Layer {
	if len(selected) == 0 {
		return nil
	}
	set := make(map[model.Coord]struct{}, len(selected))
	for _, c := range selected {
		set[c] = struct{}{}
	}
	pick := func(c color.RGBA, scale float64) render.Layer {
		return render.LayerFunc(func(x, y int) (render.PaintDescriptor, bool) {
			if _, ok := set[model.Coord{X: x, Y: y}]; !ok {
				return render.PaintDescriptor{}, false
			}
			return render.PaintDescriptor{Color: c, Scale: scale}, true
		})
	}
	return []render.Layer{
		pick(colorSelectedStroke, selectedStrokeScale),
		pick(colorSelectedFill, selectedFillScale),
	}
}

// EstateLayer 只突出 estate：每个 estate 按 id 取固定颜色，其余地块压暗
func EstateLayer(tiles map[string]model.Tile) render.Layer {
	return render.LayerFunc(func(x, y int) (render.PaintDescriptor, bool) {
		t, ok := tiles[model.CoordsToID(x, y)]
		if !ok {
			return render.PaintDescriptor{Color: emptyColor(x, y)}, true
		}
		if t.EstateID == "" {
			return render.PaintDescriptor{Color: colorUnowned}, true
		}
		return render.PaintDescriptor{
			Color:   estateColor(t.EstateID),
			Top:     t.Top,
			Left:    t.Left,
			TopLeft: t.TopLeft,
		}, true
	})
}

func estateColor(id string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return estatePalette[h.Sum32()%uint32(len(estatePalette))]
}
