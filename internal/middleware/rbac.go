package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-admin-api/internal/models"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
	"github.com/noah-isme/college-admin-api/pkg/response"
)

var errUnboundSession = appErrors.Clone(appErrors.ErrForbidden, "session is not bound to a college")

// Claims returns the verified claims that JWT stored on c.
func Claims(c *gin.Context) (*models.JWTClaims, bool) {
	value, _ := c.Get(ContextUserKey)
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}

// RequireRoles lets a request through only when the caller holds one of roles
// in the college its token is bound to. It must run after JWT.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	permitted := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		permitted[r] = true
	}

	return func(c *gin.Context) {
		claims, ok := Claims(c)
		switch {
		case !ok:
			response.Error(c, appErrors.ErrUnauthorized)
		case claims.CollegeID == "":
			response.Error(c, errUnboundSession)
		case !permitted[claims.Role]:
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "your role cannot access this resource"))
		default:
			c.Next()
			return
		}
		c.Abort()
	}
}
