package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/slicemill/pizza-order-service/internal/config"
)

// bodyRecorder captures the response body while forwarding it to the
// client so successful responses can be stored in the cache.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *bodyRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// NewResponseCache caches successful GET responses for a route in Redis
// under the given key. It is applied per-route (the menu listing) so
// the key does not need to encode the path. Without a Redis client the
// middleware is a pass-through.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, key string) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	key = cfg.Prefix + ":" + key

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
				return c.JSONBlob(http.StatusOK, body)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				return err
			}
			if rec.status == http.StatusOK && rec.buf.Len() > 0 {
				_ = rdb.Set(ctx, key, rec.buf.Bytes(), ttl).Err()
			}
			return nil
		}
	}
}

// BustCache removes a cached entry. Called after mutations that change
// what the cached route would return.
func BustCache(cfg config.CacheConfig, rdb *redis.Client, c echo.Context, key string) {
	if rdb == nil {
		return
	}
	_ = rdb.Del(c.Request().Context(), cfg.Prefix+":"+key).Err()
}
