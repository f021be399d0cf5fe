package home

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"atlas/api/codes"
	"atlas/api/model"
	"atlas/api/service"
)

const miniMapCacheControl = "public,s-maxage=600,max-age=600"

// ---------- 地图图片 ----------

// GET /v1/map.png?center=23,-23&selected=23,-23;24,-23&size=20&width=1024&height=1024&on-sale=true
func MapPng(c *gin.Context) {
	req, err := mapRequest(c)
	if err != nil {
		fail(c, http.StatusBadRequest, codes.CODE_ERR_BAD_PARAMS, err.Error())
		return
	}
	renderPng(c, req)
}

// GET /v1/parcels/:x/:y/map.png 以该 parcel 为中心并选中
func ParcelMapPng(c *gin.Context) {
	req, err := mapRequest(c)
	if err != nil {
		fail(c, http.StatusBadRequest, codes.CODE_ERR_BAD_PARAMS, err.Error())
		return
	}
	center, err := pathCoord(c)
	if err != nil {
		fail(c, http.StatusBadRequest, codes.CODE_ERR_BAD_PARAMS, err.Error())
		return
	}
	req.Center = center
	req.Selected = []model.Coord{center}
	renderPng(c, req)
}

// GET /v1/estates/:id/map.png estate 没有地块（已解散或不存在）时跳转到固定图片
func EstateMapPng(c *gin.Context) {
	req, err := mapRequest(c)
	if err != nil {
		fail(c, http.StatusBadRequest, codes.CODE_ERR_BAD_PARAMS, err.Error())
		return
	}
	selected, center, err := deps.Images.EstateSelection(c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		c.Redirect(http.StatusFound, deps.DissolvedEstateImage)
		return
	}
	if err != nil {
		failErr(c, err)
		return
	}
	req.Center = center
	req.Selected = selected
	renderPng(c, req)
}

// GET /v1/minimap.png
func MiniMapPng(c *gin.Context) {
	cachedPng(c, "minimap.png", deps.Images.MiniMap)
}

// GET /v1/estatemap.png
func EstateMiniMapPng(c *gin.Context) {
	cachedPng(c, "estatemap.png", deps.Images.EstateMiniMap)
}

// 先渲染到内存，出错时仍能返回 JSON
func renderPng(c *gin.Context, req service.MapRequest) {
	var buf bytes.Buffer
	if err := deps.Images.Render(c.Request.Context(), &buf, req); err != nil {
		failRender(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// 缓存 token 与渲染用同一份快照，避免新图存进旧 token
func cachedPng(c *gin.Context, key string, render func(ctx context.Context, snap *model.Snapshot) ([]byte, error)) {
	snap, err := deps.Maps.Snapshot()
	if err != nil {
		failErr(c, err)
		return
	}
	body, err := deps.Cache.Get(c.Request.Context(), key, []int64{snap.UpdatedAt}, func(ctx context.Context) ([]byte, error) {
		return render(ctx, snap)
	})
	if err != nil {
		failRender(c, err)
		return
	}
	c.Header("Cache-Control", miniMapCacheControl)
	c.Data(http.StatusOK, "image/png", body)
}

func failRender(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotReady) || errors.Is(err, service.ErrNotFound) {
		failErr(c, err)
		return
	}
	fail(c, http.StatusInternalServerError, codes.CODE_ERR_RENDER, err.Error())
}
