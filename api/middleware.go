package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// DecompressRequests inflates gzip request bodies before they reach the
// handlers. A malformed gzip stream is a 400; any other content coding is a
// 415.
func DecompressRequests() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			encoding := strings.TrimSpace(req.Header.Get(echo.HeaderContentEncoding))
			switch {
			case encoding == "" || strings.EqualFold(encoding, "identity"):
				return next(c)
			case !strings.EqualFold(encoding, "gzip"):
				return echo.NewHTTPError(http.StatusUnsupportedMediaType, "unsupported content encoding")
			}

			gr, err := gzip.NewReader(req.Body)
			if err != nil {
				_ = req.Body.Close()
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}
			req.Body = inflatedBody{Reader: gr, gz: gr, raw: req.Body}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

type inflatedBody struct {
	io.Reader
	gz  *gzip.Reader
	raw io.Closer
}

func (b inflatedBody) Close() error {
	err := b.gz.Close()
	if cerr := b.raw.Close(); err == nil {
		err = cerr
	}
	return err
}
