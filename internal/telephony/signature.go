package telephony

import (
	"context"
	"net/http"
	"strings"

	"missedcall/pkg/logger"

	"github.com/gin-gonic/gin"
	twilioclient "github.com/twilio/twilio-go/client"
)

const headerTwilioSignature = "X-Twilio-Signature"

// AuthTokenSource returns the auth tokens a webhook with the given form
// parameters may be signed with.
type AuthTokenSource func(ctx context.Context, params map[string]string) ([]string, error)

// RequireTwilioSignature rejects webhooks whose X-Twilio-Signature does not
// match any token from tokens. publicBaseURL is the externally visible scheme
// and host Twilio signed against (we usually sit behind a proxy).
func RequireTwilioSignature(publicBaseURL string, tokens AuthTokenSource) gin.HandlerFunc {
	base := strings.TrimRight(publicBaseURL, "/")
	return func(c *gin.Context) {
		log := logger.FromGin(c)

		sig := c.GetHeader(headerTwilioSignature)
		if sig == "" {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		params := make(map[string]string, len(c.Request.PostForm))
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}

		toks, err := tokens(c.Request.Context(), params)
		if err != nil {
			log.Error("twilio signature: token lookup failed", "err", err)
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}

		url := base + c.Request.URL.RequestURI()
		for _, tok := range toks {
			if tok == "" {
				continue
			}
			v := twilioclient.NewRequestValidator(tok)
			if v.Validate(url, params, sig) {
				c.Next()
				return
			}
		}
		log.Warn("twilio signature mismatch", "url", url)
		c.AbortWithStatus(http.StatusForbidden)
	}
}
