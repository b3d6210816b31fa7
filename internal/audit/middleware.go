package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"soc-platform/internal/auth"
	"soc-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// maxBodyCapture bounds how much of a request body is copied into audit metadata.
const maxBodyCapture = 8 << 10

// Middleware records one entry per completed authenticated request.
// It must be registered after auth.RequireToken so a principal is present.
// Recording happens after the handler chain finishes; failures are logged
// and never alter the client-visible response.
func Middleware(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]any
		if c.Request.Body != nil && c.Request.ContentLength > 0 && c.Request.ContentLength <= maxBodyCapture {
			raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyCapture))
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewReader(raw))
				_ = json.Unmarshal(raw, &body)
			}
		}

		c.Next()

		p, err := auth.PrincipalFrom(c.Request.Context())
		if err != nil {
			// No principal resolved; the login route records its own entries.
			return
		}

		meta := map[string]any{}
		if q := c.Request.URL.RawQuery; q != "" {
			meta["query"] = q
		}
		if body != nil {
			meta["body"] = body
		}

		entry := Entry{
			TenantID:   p.TenantID,
			ActorID:    p.ID,
			ActorEmail: p.Email,
			Action:     c.Request.Method + " " + c.Request.URL.Path,
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			Status:     c.Writer.Status(),
			IP:         c.ClientIP(),
			Metadata:   meta,
		}
		// Recording happens after the response; a client that hung up
		// already canceled the request context, and the entry must land
		// regardless.
		if err := svc.Record(context.WithoutCancel(c.Request.Context()), entry); err != nil {
			logger.FromGin(c).Error("audit record failed", "err", err, "action", entry.Action)
		}
	}
}
