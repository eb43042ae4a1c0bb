package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey   = "response_meta"
	requestStartKey   = "request_started_at"
	cacheHitMetaKey   = "cache_hit"
	processingMetaKey = "processing_time_ms"
)

// WithResponseMeta gives each request an empty meta map that handlers fill
// through SetMeta and the response envelope carries.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Set(requestStartKey, time.Now())
		c.Next()
	}
}

// SetCacheHit records whether the payload came from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, cacheHitMetaKey, hit)
}

// SetMeta stores one meta entry, creating the map when WithResponseMeta did
// not run.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	meta, _ := c.Value(responseMetaKey).(map[string]interface{})
	if meta == nil {
		meta = map[string]interface{}{}
		c.Set(responseMetaKey, meta)
	}
	meta[key] = value
}

// ExtractMeta returns the recorded meta with processing_time_ms added, or nil
// when no handler recorded anything.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta, _ := c.Value(responseMetaKey).(map[string]interface{})
	if len(meta) == 0 {
		return nil
	}
	if started, ok := c.Value(requestStartKey).(time.Time); ok {
		meta[processingMetaKey] = time.Since(started).Milliseconds()
	}
	return meta
}
