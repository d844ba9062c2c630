package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const contextUserID = "user_id"

// OwnerResolver turns an access token into the id of its user.
type OwnerResolver interface {
	ParseOwner(token string) (uuid.UUID, error)
}

// Authenticate accepts an access token from the Authorization header or,
// failing that, from cookieName, and stores the caller's id under "user_id".
// Requests without a valid token stop here with 401.
func Authenticate(resolver OwnerResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && cookieName != "" {
			token, _ = c.Cookie(cookieName)
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		owner, err := resolver.ParseOwner(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(contextUserID, owner.String())
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
