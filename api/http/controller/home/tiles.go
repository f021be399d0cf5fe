package home

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"atlas/api/model"
)

var validFields = func() map[string]bool {
	m := make(map[string]bool, len(model.TileFields))
	for _, f := range model.TileFields {
		m[f] = true
	}
	return m
}()

type tileFilter struct {
	bbox                   bool
	minX, maxX, minY, maxY int
	include                []string
	exclude                map[string]bool
}

// parseTileFilter x1,y1,x2,y2 四个都是数字时才按区域过滤；include 优先于 exclude
func parseTileFilter(q url.Values) tileFilter {
	var f tileFilter
	var nums [4]int
	valid := true
	for i, name := range []string{"x1", "y1", "x2", "y2"} {
		n, err := strconv.Atoi(q.Get(name))
		if err != nil {
			valid = false
			break
		}
		nums[i] = n
	}
	if valid {
		f.bbox = true
		f.minX, f.maxX = min(nums[0], nums[2]), max(nums[0], nums[2])
		f.minY, f.maxY = min(nums[1], nums[3]), max(nums[1], nums[3])
	}

	if include := q.Get("include"); include != "" {
		for _, field := range strings.Split(include, ",") {
			if validFields[field] {
				f.include = append(f.include, field)
			}
		}
		if f.include == nil {
			f.include = []string{}
		}
	} else if exclude := q.Get("exclude"); exclude != "" {
		f.exclude = make(map[string]bool)
		for _, field := range strings.Split(exclude, ",") {
			f.exclude[field] = true
		}
	}
	return f
}

func (f tileFilter) match(t model.Tile) bool {
	return !f.bbox || (t.X >= f.minX && t.X <= f.maxX && t.Y >= f.minY && t.Y <= f.maxY)
}

// fields 需要投影的字段，nil 表示输出完整 tile
func (f tileFilter) fields() []string {
	if f.include != nil {
		return f.include
	}
	if f.exclude == nil {
		return nil
	}
	out := make([]string, 0, len(model.TileFields))
	for _, field := range model.TileFields {
		if !f.exclude[field] {
			out = append(out, field)
		}
	}
	return out
}

func project(t model.Tile, fields []string) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for _, name := range fields {
		if v, ok := t.Field(name); ok {
			out[name] = v
		}
	}
	return out
}

func filterTiles(tiles map[string]model.Tile, f tileFilter) map[string]interface{} {
	fields := f.fields()
	out := make(map[string]interface{})
	for id, t := range tiles {
		if !f.match(t) {
			continue
		}
		if fields == nil {
			out[id] = t
		} else {
			out[id] = project(t, fields)
		}
	}
	return out
}

// 同一份快照、同样的查询参数只序列化一次
func cachedJSON(c *gin.Context, prefix string, build func(snap *model.Snapshot) interface{}) {
	snap, err := deps.Maps.Snapshot()
	if err != nil {
		failErr(c, err)
		return
	}
	key := prefix + "?" + c.Request.URL.Query().Encode()
	body, err := deps.Cache.Get(c.Request.Context(), key, []int64{snap.UpdatedAt}, func(context.Context) ([]byte, error) {
		res := newResponse()
		res.Data = build(snap)
		return json.Marshal(res)
	})
	if err != nil {
		failErr(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// GET /v2/tiles?x1=&y1=&x2=&y2=&include=&exclude=
func TilesV2(c *gin.Context) {
	f := parseTileFilter(c.Request.URL.Query())
	cachedJSON(c, "v2/tiles", func(snap *model.Snapshot) interface{} {
		return filterTiles(snap.Tiles, f)
	})
}

// GET /v1/tiles 旧版数字类型码格式，只支持区域过滤
func TilesV1(c *gin.Context) {
	f := parseTileFilter(c.Request.URL.Query())
	cachedJSON(c, "v1/tiles", func(snap *model.Snapshot) interface{} {
		out := make(map[string]model.LegacyTile)
		now := time.Now()
		for id, t := range snap.Tiles {
			if f.match(t) {
				out[id] = model.ToLegacyTile(t, now)
			}
		}
		return out
	})
}

// GET /v2/tiles/info
func TilesInfo(c *gin.Context) {
	at, err := deps.Maps.LastUpdatedAt()
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"lastUpdatedAt": at})
}
