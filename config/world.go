package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"atlas/api/model"
)

// World 世界静态配置：特殊地块（道路/广场/街区）与地图贴图
//
//	special:
//	  road: ["-2,0", "-2,-5:-2,5"]
//	  plaza: ["-9,9:10,-9"]
//	decals:
//	  - path: public/logo192.png
//	    nw: "-9,9"
//	    se: "10,-9"
type World struct {
	Special map[model.TileType][]string `yaml:"special"`
	Decals  []DecalSpec                 `yaml:"decals"`
}

type DecalSpec struct {
	Path string `yaml:"path"`
	NW   string `yaml:"nw"`
	SE   string `yaml:"se"`
}

func LoadWorld(path string) (*World, error) {
	if path == "" {
		return &World{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world file: %w", err)
	}
	return ParseWorld(raw)
}

func ParseWorld(raw []byte) (*World, error) {
	var w World
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("parse world file: %w", err)
	}
	for t := range w.Special {
		if !t.Valid() {
			return nil, fmt.Errorf("unknown special tile type %q", t)
		}
	}
	return &w, nil
}

// SpecialTiles 展开为 coords id -> 类型；"x1,y1:x2,y2" 表示闭区间矩形
func (w *World) SpecialTiles() (map[string]model.TileType, error) {
	out := make(map[string]model.TileType)
	for t, entries := range w.Special {
		for _, e := range entries {
			from, to, isRange := strings.Cut(e, ":")
			a, err := model.ParseCoord(from)
			if err != nil {
				return nil, err
			}
			b := a
			if isRange {
				if b, err = model.ParseCoord(to); err != nil {
					return nil, err
				}
			}
			minX, maxX := order(a.X, b.X)
			minY, maxY := order(a.Y, b.Y)
			for x := minX; x <= maxX; x++ {
				for y := minY; y <= maxY; y++ {
					out[model.CoordsToID(x, y)] = t
				}
			}
		}
	}
	return out, nil
}

func order(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
