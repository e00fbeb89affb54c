package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

type BrotliConfig struct {
	Quality int
	// MinLength is the body size below which responses are sent as is.
	MinLength int
	Skipper   func(c *gin.Context) bool
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

// brotliWriter buffers the body until MinLength is reached, then switches
// to streaming everything through the encoder.
type brotliWriter struct {
	gin.ResponseWriter
	encoder   *brotli.Writer
	quality   int
	minLength int
	buf       []byte
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	if bw.encoder != nil {
		return bw.encoder.Write(data)
	}

	bw.buf = append(bw.buf, data...)
	if len(bw.buf) < bw.minLength || alreadyCompressed(bw.Header().Get("Content-Type")) {
		return len(data), nil
	}

	bw.Header().Set("Content-Encoding", "br")
	bw.Header().Del("Content-Length")
	bw.encoder = brotli.NewWriterLevel(bw.ResponseWriter, bw.quality)
	if _, err := bw.encoder.Write(bw.buf); err != nil {
		return 0, err
	}
	bw.buf = nil
	return len(data), nil
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.Write([]byte(s))
}

// Flush forwards a streaming flush, draining whatever is buffered.
func (bw *brotliWriter) Flush() {
	if bw.encoder != nil {
		_ = bw.encoder.Flush()
	} else {
		_ = bw.drain()
	}
	bw.ResponseWriter.Flush()
}

// finish sends a short body uncompressed or closes the encoder.
func (bw *brotliWriter) finish() error {
	if bw.encoder != nil {
		return bw.encoder.Close()
	}
	return bw.drain()
}

func (bw *brotliWriter) drain() error {
	if len(bw.buf) == 0 {
		return nil
	}
	_, err := bw.ResponseWriter.Write(bw.buf)
	bw.buf = nil
	return err
}

func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < brotli.BestSpeed || cfg.Quality > brotli.BestCompression {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if isWebSocketUpgrade(c) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}
		if cfg.Skipper != nil && cfg.Skipper(c) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		bw := &brotliWriter{
			ResponseWriter: c.Writer,
			quality:        cfg.Quality,
			minLength:      cfg.MinLength,
		}
		c.Writer = bw
		defer func() {
			if err := bw.finish(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Next()
	}
}

// isWebSocketUpgrade reports upgrade requests, which must reach the
// handler with the raw connection.
func isWebSocketUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

// alreadyCompressed reports binary payloads that gain nothing from brotli.
func alreadyCompressed(contentType string) bool {
	return strings.HasPrefix(contentType, "application/pdf") ||
		strings.HasPrefix(contentType, "image/")
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "br") {
			return true
		}
	}
	return false
}
