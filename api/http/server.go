package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"atlas/api/api/interceptor"
	"atlas/api/config"
	"atlas/api/log"
)

// NewEngine 组装中间件与路由，处理函数依赖需先通过 home.Init 注入
func NewEngine(cfg *config.Config, ready interceptor.Readiness) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), interceptor.RequestID(), cors.New(corsConfig(cfg)))
	Routers(engine.Group("/"), ready)
	return engine
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", interceptor.RequestIDHeader},
		ExposeHeaders: []string{interceptor.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if cfg.CorsOrigin == "" || cfg.CorsOrigin == "*" {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = splitList(cfg.CorsOrigin)
	}
	if cfg.CorsMethod == "" || cfg.CorsMethod == "*" {
		c.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	} else {
		c.AllowMethods = splitList(cfg.CorsMethod)
	}
	return c
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Handler 除 websocket 外的响应都走 gzip
func Handler(engine *gin.Engine) http.Handler {
	gz := gzhttp.GzipHandler(engine)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/updates" {
			engine.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Serve 阻塞直到 ctx 结束，然后优雅关闭
func Serve(ctx context.Context, cfg *config.Config, h http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("http server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
