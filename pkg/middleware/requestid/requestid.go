package requestid

import (
	"context"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header is echoed on every response and honoured on requests when it looks sane.
const Header = "X-Request-ID"

const ginKey = "request_id"

var acceptable = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)

type ctxKey struct{}

// Middleware tags each request with an id, reusing the caller's X-Request-ID
// when it is short and free of odd characters.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !acceptable.MatchString(id) {
			id = uuid.NewString()
		}
		c.Set(ginKey, id)
		c.Header(Header, id)
		c.Request = c.Request.WithContext(NewContext(c.Request.Context(), id))
		c.Next()
	}
}

// NewContext returns ctx carrying id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Value reads the id from a gin context.
func Value(c *gin.Context) string {
	return c.GetString(ginKey)
}

// FromContext reads the id from a request context.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
