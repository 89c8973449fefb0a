package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/campus-fest/event-checkin/holders"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is what the access guard hands to handlers after a bearer
// token has been verified.
type Identity struct {
	HolderID uuid.UUID
	Name     string
	Role     holders.Role
}

// Guard signs and verifies the HS256 bearer tokens that gate the API.
// Redemption and review endpoints additionally require the OPERATOR role.
type Guard struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewGuard(secret []byte, tokenTTL time.Duration) *Guard {
	return &Guard{
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

func (g *Guard) IssueToken(holder holders.Holder, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(g.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  holder.ID.String(),
		"name": holder.Name,
		"role": holder.Role.String(),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	})

	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

func (g *Guard) ParseToken(raw string) (Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("unexpected claims format")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return Identity{}, fmt.Errorf("missing sub claim: %w", err)
	}
	holderId, err := uuid.Parse(sub)
	if err != nil {
		return Identity{}, fmt.Errorf("malformed sub claim: %w", err)
	}

	name, _ := claims["name"].(string)

	roleClaim, _ := claims["role"].(string)
	var role holders.Role
	switch roleClaim {
	case holders.HOLDER.String():
		role = holders.HOLDER
	case holders.OPERATOR.String():
		role = holders.OPERATOR
	default:
		return Identity{}, fmt.Errorf("unknown role claim %q", roleClaim)
	}

	return Identity{
		HolderID: holderId,
		Name:     name,
		Role:     role,
	}, nil
}

// requireAuth wraps a handler with bearer-token verification. When roles
// are given, the identity must hold one of them.
func (a *API) requireAuth(next http.HandlerFunc, roles ...holders.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			a.writeError(w, http.StatusUnauthorized, AuthError, "Missing bearer token")
			return
		}

		identity, err := a.guard.ParseToken(strings.TrimPrefix(authz, "Bearer "))
		if err != nil {
			a.writeError(w, http.StatusUnauthorized, AuthError, "Invalid token")
			return
		}

		if len(roles) > 0 {
			allowed := false
			for _, role := range roles {
				if identity.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				a.writeError(w, http.StatusForbidden, Forbidden, fmt.Sprintf("Requires one of roles: %v", roles))
				return
			}
		}

		next(w, r.WithContext(ctxWithIdentity(r.Context(), identity)))
	}
}
