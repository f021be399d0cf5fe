package interceptor

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"atlas/api/api/common"
	"atlas/api/codes"
)

// Readiness 是否已完成首次全量加载
type Readiness interface {
	IsReady() bool
}

// ReadyInterceptor 首次全量加载完成前，数据接口一律返回 503
func ReadyInterceptor(r Readiness) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.IsReady() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, common.Response{
				Code:      codes.CODE_ERR_NOT_READY,
				Msg:       common.MsgNotReady,
				Timestamp: time.Now().Unix(),
			})
			return
		}
		c.Next()
	}
}
