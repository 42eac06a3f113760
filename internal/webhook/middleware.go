package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SignatureMiddleware verifies the X-Webhook-Signature header: an HMAC
// SHA-256 of the raw body keyed with the shared secret, hex encoded. An
// empty secret disables verification entirely.
func SignatureMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		// Restore the body for the handler.
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !VerifySignature(secret, body, c.GetHeader("X-Webhook-Signature")) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}

// VerifySignature checks a hex HMAC-SHA256 signature over the payload.
func VerifySignature(secret string, payload []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
