package http

import (
	"github.com/gin-gonic/gin"

	"atlas/api/api/http/controller/home"
	"atlas/api/api/interceptor"
)

func Routers(e *gin.RouterGroup, ready interceptor.Readiness) {

	homeGroup := e.Group("/")
	homeGroup.GET("ping", home.Ping)
	homeGroup.GET("ready", home.Ready)

	v1Group := e.Group("/v1", interceptor.ReadyInterceptor(ready))
	v1Group.GET("/tiles", home.TilesV1)
	v1Group.GET("/map.png", home.MapPng)
	v1Group.GET("/minimap.png", home.MiniMapPng)
	v1Group.GET("/estatemap.png", home.EstateMiniMapPng)
	v1Group.GET("/parcels/:x/:y/map.png", home.ParcelMapPng)
	v1Group.GET("/estates/:id/map.png", home.EstateMapPng)

	v2Group := e.Group("/v2", interceptor.ReadyInterceptor(ready))
	v2Group.GET("/tiles", home.TilesV2)
	v2Group.GET("/tiles/info", home.TilesInfo)
	v2Group.GET("/map.png", home.MapPng)
	v2Group.GET("/parcels/:x/:y", home.ParcelV2)
	v2Group.GET("/estates/:id", home.EstateV2)
	v2Group.GET("/contracts/:address/tokens/:id", home.TokenV2)

	// 推送流在就绪前也可以连接，ready 事件会推给客户端
	e.GET("/v2/updates", home.Updates)
}
