package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/KarolineKS/PetMatch-api/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
	"github.com/julienschmidt/httprouter"
)

const principalKey contextKey = "principal"

// Principal is the verified identity attached to privileged requests.
// Nivel runs 1..3, 3 being full administrative access.
type Principal struct {
	ID    string
	Nome  string
	Nivel int
}

type adminClaims struct {
	AdminID    string `json:"adminLogadoId"`
	AdminNome  string `json:"adminLogadoNome"`
	AdminNivel int    `json:"adminLogadoNivel"`
	jwt.RegisteredClaims
}

// Authenticator verifies bearer tokens issued by the external auth
// collaborator. Token issuance itself lives outside this service.
type Authenticator struct {
	secret []byte
	log    *logger.Logger
}

func NewAuthenticator(secret string, log *logger.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), log: log}
}

func (a *Authenticator) verify(tokenStr string) (*Principal, error) {
	claims := &adminClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return &Principal{
		ID:    claims.AdminID,
		Nome:  claims.AdminNome,
		Nivel: claims.AdminNivel,
	}, nil
}

// RequireLevel guards a route with token verification plus a minimum
// privilege level. The verified principal is stored on the request context.
func (a *Authenticator) RequireLevel(minLevel int, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		authorization := r.Header.Get("Authorization")
		if authorization == "" {
			writeAuthError(w, http.StatusUnauthorized, "Token de acesso não informado")
			return
		}

		tokenStr := strings.TrimPrefix(authorization, "Bearer ")
		principal, err := a.verify(tokenStr)
		if err != nil {
			a.log.Warn("Token verification failed",
				"request_id", RequestID(r.Context()),
				"path", r.URL.Path,
				"error", err,
			)
			writeAuthError(w, http.StatusUnauthorized, "Token inválido ou expirado")
			return
		}

		if principal.Nivel < minLevel {
			writeAuthError(w, http.StatusForbidden,
				fmt.Sprintf("Acesso negado. Nível mínimo necessário: %d", minLevel))
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next(w, r.WithContext(ctx), ps)
	}
}

// PrincipalFromContext returns the verified principal, if the route passed
// through RequireLevel.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
