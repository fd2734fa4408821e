package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/matchpoint/court-booking/internal/config"
)

// captureWriter tees the response body into a buffer, up to limit bytes,
// while still writing to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.buf.Len() < cw.limit {
		remain := cw.limit - cw.buf.Len()
		if len(b) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	return cw.ResponseWriter.Write(b)
}

// cacheKey hashes route plus raw query so every distinct search is its own
// entry without unbounded key length.
func cacheKey(prefix string, c echo.Context) string {
	sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum)
}

// payload layout: [4 bytes status][4 bytes content-type length][content-type][body]
func encodePayload(status int, contentType string, body []byte) []byte {
	out := make([]byte, 8+len(contentType)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(contentType)))
	copy(out[8:], contentType)
	copy(out[8+len(contentType):], body)
	return out
}

func decodePayload(bs []byte) (status int, contentType string, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, "", nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	ctLen := int(binary.BigEndian.Uint32(bs[4:8]))
	if ctLen < 0 || 8+ctLen > len(bs) {
		return 0, "", nil, false
	}
	return status, string(bs[8 : 8+ctLen]), bs[8+ctLen:], true
}

// NewResponseCache caches successful responses on the configured methods in
// Redis.  Intended for the public browse routes where staleness within the
// TTL is acceptable.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, ct, body, ok := decodePayload(bs); ok {
					c.Response().Header().Set("X-Cache", "HIT")
					if ct != "" {
						c.Response().Header().Set(echo.HeaderContentType, ct)
					}
					c.Response().WriteHeader(status)
					_, werr := c.Response().Write(body)
					return werr
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			// Only fully captured 200s are stored; a truncated body must
			// never be served back.
			if cw.status == http.StatusOK && cw.buf.Len() < cfg.MaxBodyBytes {
				payload := encodePayload(cw.status, c.Response().Header().Get(echo.HeaderContentType), cw.buf.Bytes())
				if err := rdb.SetEx(context.Background(), key, payload, cfg.TTL).Err(); err != nil {
					log.Warn().Err(err).Str("key", key).Msg("response cache store failed")
				}
			}
			return nil
		}
	}
}
