package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Coord 世界网格坐标，y 轴向上为正
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) ID() string { return CoordsToID(c.X, c.Y) }

func (c Coord) String() string { return c.ID() }

// CoordsToID 坐标编码为 "x,y"，全局统一用作 map key
func CoordsToID(x, y int) string {
	return strconv.Itoa(x) + "," + strconv.Itoa(y)
}

// IDToCoords 解析 "x,y"
func IDToCoords(id string) (int, int, error) {
	xs, ys, ok := strings.Cut(id, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid coords %q", id)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x in %q: %w", id, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y in %q: %w", id, err)
	}
	return x, y, nil
}

func ParseCoord(s string) (Coord, error) {
	x, y, err := IDToCoords(s)
	if err != nil {
		return Coord{}, err
	}
	return Coord{X: x, Y: y}, nil
}

// ParseCoordList 解析 "x1,y1;x2,y2;..."，空段跳过
func ParseCoordList(s string) ([]Coord, error) {
	var out []Coord
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseCoord(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
