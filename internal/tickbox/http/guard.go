package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/service"
	"github.com/aussiebroadwan/tickbox/pkg/httpx"
)

// TodoGuard only lets a request through when the authenticated caller owns
// the todo named by the {id} route parameter. A missing todo is refused the
// same way as someone else's.
func TodoGuard(todos *service.TodoService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID, _ := httpx.UserID(r.Context())
			if err := todos.Authorize(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
				writeTodoError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
