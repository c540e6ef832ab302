package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"people-search-platform/internal/webhook"
	"people-search-platform/utils"
)

// WebhookSignatureMiddleware authenticates inbound worker webhooks: the
// HMAC is recomputed over "{timestamp}.{raw body}" and compared in constant
// time, and the timestamp must sit inside the shared replay window. The
// body is restored afterwards so handlers can bind it as usual.
func WebhookSignatureMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			utils.RespondWithBadRequest(c, "cannot read request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		err = webhook.Verify(secret,
			c.GetHeader(webhook.TimestampHeader),
			c.GetHeader(webhook.SignatureHeader),
			body, time.Now())
		if err != nil {
			utils.RespondWithUnauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Next()
	}
}
