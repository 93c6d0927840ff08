package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bloodsight/bloodsight-api/pkg/httputil"
)

type SizeLimitConfig struct {
	MaxBodySize   int64
	MaxUploadSize int64
	MaxHeaderSize int
	// UploadPaths get the larger multipart budget instead of the JSON
	// body cap.
	UploadPaths []string
}

func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxBodySize:   1 << 20,  // 1MB
		MaxUploadSize: 16 << 20, // 16MB
		MaxHeaderSize: 1 << 14,  // 16KB
		UploadPaths:   []string{"/upload", "/file"},
	}
}

// SizeLimit rejects oversized requests before handlers read them.
func SizeLimit(config SizeLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := config.MaxBodySize
		for _, p := range config.UploadPaths {
			if strings.HasSuffix(c.Request.URL.Path, p) {
				limit = config.MaxUploadSize
				break
			}
		}

		if c.Request.ContentLength > limit {
			httputil.Fail(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds %d bytes", limit))
			c.Abort()
			return
		}

		headerSize := 0
		for name, values := range c.Request.Header {
			headerSize += len(name)
			for _, value := range values {
				headerSize += len(value)
			}
		}
		if headerSize > config.MaxHeaderSize {
			httputil.Fail(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request headers exceed %d bytes", config.MaxHeaderSize))
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
