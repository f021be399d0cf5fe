package home

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"atlas/api/api/common"
	mycache "atlas/api/cache"
	"atlas/api/codes"
	"atlas/api/log"
	"atlas/api/service"
)

// Deps 处理函数共享的服务，启动时通过 Init 注入
type Deps struct {
	Maps                 *service.MapService
	Images               *service.ImageService
	Tokens               *service.TokenService
	Hub                  *service.Hub
	Cache                *mycache.ResponseCache[[]byte]
	DissolvedEstateImage string
}

var deps Deps

func Init(d Deps) {
	deps = d
}

func newResponse() common.Response {
	return common.Response{Timestamp: time.Now().Unix(), Code: codes.CODE_SUCCESS, Msg: common.MsgSuccess}
}

func ok(c *gin.Context, data interface{}) {
	res := newResponse()
	res.Data = data
	c.JSON(http.StatusOK, res)
}

func fail(c *gin.Context, status, code int, msg string) {
	res := newResponse()
	res.Code = code
	res.Msg = msg
	c.AbortWithStatusJSON(status, res)
}

// failErr 把服务层错误映射为 HTTP 状态
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotReady):
		fail(c, http.StatusServiceUnavailable, codes.CODE_ERR_NOT_READY, common.MsgNotReady)
	case errors.Is(err, service.ErrNotFound):
		fail(c, http.StatusNotFound, codes.CODE_ERR_OBJ_NOT_FOUND, common.MsgNotFound)
	default:
		log.WithField("path", c.Request.URL.Path).Errorf("request failed: %v", err)
		fail(c, http.StatusInternalServerError, codes.CODE_ERR_UNKNOWN, err.Error())
	}
}

// GET /ping
func Ping(c *gin.Context) {
	ok(c, "pong")
}

// GET /ready
func Ready(c *gin.Context) {
	if deps.Maps == nil || !deps.Maps.IsReady() {
		fail(c, http.StatusServiceUnavailable, codes.CODE_ERR_NOT_READY, common.MsgNotReady)
		return
	}
	ok(c, "ready")
}
