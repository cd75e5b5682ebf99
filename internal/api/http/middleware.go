package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/periko-gan/linkcurt-backend/internal/auth"
	"github.com/periko-gan/linkcurt-backend/internal/database"
	"github.com/periko-gan/linkcurt-backend/internal/models"
	"github.com/periko-gan/linkcurt-backend/pkg/response"
)

type ctxKey int

const userCtxKey ctxKey = iota

// UserFromContext returns the authenticated user stored by the guard.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userCtxKey).(*models.User)
	return user, ok
}

// Guard validates bearer credentials and enforces role-based access.
type Guard struct {
	tokens *auth.TokenManager
	users  UserService
}

func NewGuard(tokens *auth.TokenManager, users UserService) *Guard {
	return &Guard{
		tokens: tokens,
		users:  users,
	}
}

// Authorize admits the request when the bearer token resolves to a user
// whose role satisfies required. An empty required role admits every
// request unchanged.
func (g *Guard) Authorize(required models.Role) func(http.Handler) http.Handler {
	const op = "api.http.Guard.Authorize"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if required == "" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if header == "" || !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse("Authentication credentials were not provided."))
				return
			}

			claims, err := g.tokens.Verify(token)
			if err != nil {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse("Invalid or expired token."))
				return
			}

			user, err := g.users.GetUserByEmail(r.Context(), claims.Email)
			if err != nil {
				if errors.Is(err, database.ErrUserNotFound) {
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, response.UnauthorizedResponse("User not found"))
					return
				}

				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
				return
			}

			if !user.Role.Permits(required) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse("Insufficient permissions."))
				return
			}

			ctx := context.WithValue(r.Context(), userCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
