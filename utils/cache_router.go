package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoCache = 0
	CacheCustom  = -1
)

// CacheRouter stamps a cache-control header on every response of a route group.
// Presence lists change with every recognised frame so the read-only API uses CacheNoCache.
type CacheRouter struct {
	CacheTime int // seconds, or one of the Cache* constants
}

func (cr *CacheRouter) Handler() gin.HandlerFunc {
	value := cr.headerValue()
	return func(c *gin.Context) {
		if value != "" {
			c.Header("cache-control", value)
		}
		c.Next()
	}
}

func (cr *CacheRouter) headerValue() string {
	switch {
	case cr.CacheTime == CacheCustom:
		return ""
	case cr.CacheTime <= CacheNoCache:
		return "no-cache"
	default:
		return "private, max-age=" + strconv.Itoa(cr.CacheTime)
	}
}
