package api

import (
	"context"
	"strconv"
	"strings"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const requesterKey = "requester"

// Claims is the bearer token payload. Subject carries the numeric user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type ManagerDirectory interface {
	ManagedCafeIDs(ctx context.Context, userID int64) ([]int64, error)
}

// RequireRequester verifies the HS256 bearer token and stores the resolved
// domain.Requester in the gin context. Managers get their café ids attached here,
// once per request.
func RequireRequester(secret []byte, managers ManagerDirectory) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(c, domain.Errorf(domain.ErrUnauthenticated, "missing bearer token"))
			return
		}

		var claims Claims
		if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return secret, nil }); err != nil {
			writeError(c, domain.Errorf(domain.ErrUnauthenticated, "invalid token: %v", err))
			return
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || userID <= 0 {
			writeError(c, domain.Errorf(domain.ErrUnauthenticated, "invalid token subject"))
			return
		}
		role, err := domain.ParseRole(claims.Role)
		if err != nil {
			writeError(c, err)
			return
		}

		req := domain.Requester{UserID: userID, Role: role}
		if role == domain.RoleManager {
			req.ManagedCafeIDs, err = managers.ManagedCafeIDs(c.Request.Context(), userID)
			if err != nil {
				writeError(c, err)
				return
			}
		}

		c.Set(requesterKey, req)
		c.Next()
	}
}

func requesterFrom(c *gin.Context) (domain.Requester, error) {
	v, ok := c.Get(requesterKey)
	if !ok {
		return domain.Requester{}, domain.Errorf(domain.ErrUnauthenticated, "no requester on request")
	}
	return v.(domain.Requester), nil
}
