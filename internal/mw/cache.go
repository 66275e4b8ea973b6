package mw

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// ResponseCache keeps successful GET responses of record-independent routes
// (the intervention palette, the VAPID key) in memory. Entries are keyed by
// path alone, so query strings cannot grow the cache.
type ResponseCache struct {
	store *cache.Cache
	ttl   time.Duration
}

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

// capturingWriter tees the handler's body into buf.
type capturingWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// NewResponseCache creates a cache whose entries live for ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{store: cache.New(ttl, 2*ttl), ttl: ttl}
}

// Len returns the number of cached responses, expired ones included until
// the janitor runs.
func (rc *ResponseCache) Len() int {
	return rc.store.ItemCount()
}

// Handler serves cached responses and marks them with X-Cache. Browsers
// may keep the same payload for the cache lifetime.
func (rc *ResponseCache) Handler() gin.HandlerFunc {
	maxAge := fmt.Sprintf("public, max-age=%d", int(rc.ttl.Seconds()))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.Path
		if v, ok := rc.store.Get(key); ok {
			hit := v.(cachedResponse)
			h := c.Writer.Header()
			for k, vals := range hit.headers {
				h[k] = vals
			}
			h.Set("X-Cache", "HIT")
			c.Writer.WriteHeader(hit.status)
			c.Writer.Write(hit.body)
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")
		c.Header("Cache-Control", maxAge)
		cw := &capturingWriter{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = cw
		c.Next()

		if status := cw.Status(); status >= 200 && status < 300 {
			headers := cw.Header().Clone()
			headers.Del("X-Cache")
			rc.store.Set(key, cachedResponse{status: status, headers: headers, body: cw.buf.Bytes()}, rc.ttl)
		}
	}
}
