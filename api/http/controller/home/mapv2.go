package home

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"atlas/api/codes"
	"atlas/api/log"
)

const landTokenCacheControl = "public, max-age=3600,s-maxage=3600, immutable"

// GET /v2/parcels/:x/:y
func ParcelV2(c *gin.Context) {
	coord, err := pathCoord(c)
	if err != nil {
		fail(c, http.StatusBadRequest, codes.CODE_ERR_BAD_PARAMS, err.Error())
		return
	}
	parcel, err := deps.Maps.Parcel(coord.X, coord.Y)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, parcel)
}

// GET /v2/estates/:id 找不到时回退到已解散的 estate
func EstateV2(c *gin.Context) {
	id := c.Param("id")
	estate, err := deps.Maps.Estate(id)
	if err == nil {
		ok(c, estate)
		return
	}
	dissolved, derr := deps.Maps.DissolvedEstate(id)
	if derr != nil {
		failErr(c, derr)
		return
	}
	ok(c, dissolved)
}

// GET /v2/contracts/:address/tokens/:id  LAND 的 metadata 不会变，允许长缓存
func TokenV2(c *gin.Context) {
	address, id := c.Param("address"), c.Param("id")
	meta, err := deps.Tokens.Metadata(address, id)
	if err != nil {
		failErr(c, err)
		return
	}
	if deps.Tokens.IsLand(address) {
		c.Header("Cache-Control", landTokenCacheControl)
	}
	ok(c, meta)
}

// GET /v2/updates websocket，推送 ready/update 事件
func Updates(c *gin.Context) {
	if err := deps.Hub.Serve(c.Request.Context(), c.Writer, c.Request); err != nil {
		log.WithField("remote", c.ClientIP()).Debugf("updates stream closed: %v", err)
	}
}
