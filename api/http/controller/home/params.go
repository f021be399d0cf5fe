package home

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"atlas/api/model"
	"atlas/api/service"
)

const (
	defaultDimension = 1024
	minDimension     = 100
	maxDimension     = 4096

	defaultSize = 20
	minSize     = 5
	maxSize     = 50
)

// clampedInt 非法值取默认值，再夹到 [lo, hi]
func clampedInt(c *gin.Context, name string, def, lo, hi int) int {
	v := def
	if raw, exists := c.GetQuery(name); exists {
		if n, err := strconv.Atoi(raw); err == nil {
			v = n
		}
	}
	return min(max(v, lo), hi)
}

// mapRequest 解析 width/height/size/center/selected/on-sale
func mapRequest(c *gin.Context) (service.MapRequest, error) {
	req := service.MapRequest{
		Width:      clampedInt(c, "width", defaultDimension, minDimension, maxDimension),
		Height:     clampedInt(c, "height", defaultDimension, minDimension, maxDimension),
		Size:       clampedInt(c, "size", defaultSize, minSize, maxSize),
		ShowOnSale: c.Query("on-sale") == "true",
	}
	if raw, exists := c.GetQuery("center"); exists {
		center, err := model.ParseCoord(raw)
		if err != nil {
			return req, fmt.Errorf("invalid center: %w", err)
		}
		req.Center = center
	}
	if raw, exists := c.GetQuery("selected"); exists {
		selected, err := model.ParseCoordList(raw)
		if err != nil {
			return req, fmt.Errorf("invalid selected: %w", err)
		}
		req.Selected = selected
	}
	return req, nil
}

func pathCoord(c *gin.Context) (model.Coord, error) {
	x, err := strconv.Atoi(c.Param("x"))
	if err != nil {
		return model.Coord{}, fmt.Errorf("invalid x %q", c.Param("x"))
	}
	y, err := strconv.Atoi(c.Param("y"))
	if err != nil {
		return model.Coord{}, fmt.Errorf("invalid y %q", c.Param("y"))
	}
	return model.Coord{X: x, Y: y}, nil
}
