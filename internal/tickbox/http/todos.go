package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/domain"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/service"
	"github.com/aussiebroadwan/tickbox/pkg/httpx"
	"github.com/aussiebroadwan/tickbox/pkg/slogx"
	"github.com/aussiebroadwan/tickbox/pkg/tickboxsdk"
)

// TodosHandler serves /api/Todos for the authenticated caller.
type TodosHandler struct {
	TodoService *service.TodoService
}

// HandleList godoc
//
//	@Summary		List todos
//	@Description	Returns one page of the caller's todos, oldest first, five per page. Deleted todos are left out.
//	@Tags			Todos
//	@Produce		json
//	@Security		BearerAuth
//	@Param			pageNumber	query		int							false	"Page, starting at 1"	default(1)
//	@Success		200			{array}		tickboxsdk.Todo				"Up to five todos"
//	@Failure		400			{object}	tickboxsdk.ErrorResponse	"error, error_description"
//	@Failure		401			{object}	tickboxsdk.ErrorResponse	"error, error_description"
//	@Router			/api/Todos [get].
func (h *TodosHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("pageNumber"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			tickboxsdk.NewOAuth2Error(http.StatusBadRequest, tickboxsdk.ErrorCodeBadRequest, "pageNumber must be an integer").WriteError(w)
			return
		}
		page = n
	}

	callerID, _ := httpx.UserID(r.Context())
	todos, err := h.TodoService.List(r.Context(), callerID, page)
	if err != nil {
		writeTodoError(w, r, err)
		return
	}

	out := make([]tickboxsdk.Todo, 0, len(todos))
	for _, t := range todos {
		out = append(out, toTodoResponse(t))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCreate godoc
//
//	@Summary		Create todo
//	@Description	Adds a todo owned by the caller. Title and body are stored as given; both are required.
//	@Tags			Todos
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		tickboxsdk.CreateTodoRequest		true	"Title and body"
//	@Success		200		{object}	tickboxsdk.Todo						"The new todo"
//	@Failure		400		{object}	tickboxsdk.ValidationErrorResponse	"code, message, details"
//	@Failure		401		{object}	tickboxsdk.ErrorResponse			"error, error_description"
//	@Router			/api/Todos [post].
func (h *TodosHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req tickboxsdk.CreateTodoRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		tickboxsdk.ErrInvalidJSON.WriteError(w)
		return
	}

	callerID, _ := httpx.UserID(r.Context())
	t, err := h.TodoService.Create(r.Context(), callerID, req.Title, req.Body)
	if err != nil {
		writeTodoError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTodoResponse(t))
}

// HandleUpdate godoc
//
//	@Summary		Update todo
//	@Description	Overwrites title, body and completion of a todo the caller owns.
//	@Tags			Todos
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string								true	"Todo id (UUID)"
//	@Param			request	body		tickboxsdk.UpdateTodoRequest		true	"New values"
//	@Success		200		{object}	tickboxsdk.Todo						"The updated todo"
//	@Failure		400		{object}	tickboxsdk.ValidationErrorResponse	"code, message, details"
//	@Failure		401		{object}	tickboxsdk.ErrorResponse			"error, error_description"
//	@Failure		404		{object}	tickboxsdk.ErrorResponse			"error, error_description"
//	@Router			/api/Todos/{id} [put].
func (h *TodosHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req tickboxsdk.UpdateTodoRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		tickboxsdk.ErrInvalidJSON.WriteError(w)
		return
	}

	callerID, _ := httpx.UserID(r.Context())
	t, err := h.TodoService.Update(r.Context(), callerID, chi.URLParam(r, "id"), domain.TodoUpdate{
		Title:       req.Title,
		Body:        req.Body,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		writeTodoError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTodoResponse(t))
}

// HandleDelete godoc
//
//	@Summary		Delete todo
//	@Description	Soft deletes a todo the caller owns. It disappears from listings.
//	@Tags			Todos
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Todo id (UUID)"
//	@Success		204	"Deleted"
//	@Failure		400	{object}	tickboxsdk.ErrorResponse	"error, error_description"
//	@Failure		401	{object}	tickboxsdk.ErrorResponse	"error, error_description"
//	@Failure		404	{object}	tickboxsdk.ErrorResponse	"error, error_description"
//	@Router			/api/Todos/{id} [delete].
func (h *TodosHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, _ := httpx.UserID(r.Context())
	if err := h.TodoService.Delete(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
		writeTodoError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toTodoResponse(t domain.Todo) tickboxsdk.Todo {
	return tickboxsdk.Todo{
		ID:          t.ID,
		Title:       t.Title,
		Body:        t.Body,
		IsCompleted: t.IsCompleted,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		DeletedAt:   t.DeletedAt,
	}
}

// writeTodoError maps todo service errors onto responses.
func writeTodoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeValidationError(w, err)
	case errors.Is(err, service.ErrUnauthorized):
		tickboxsdk.ErrUnauthorized.WriteError(w)
	case errors.Is(err, service.ErrBadRequest):
		tickboxsdk.ErrBadRequest.WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		tickboxsdk.ErrNotFound.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("todo request failed", "err", err)
		tickboxsdk.ErrServerError.WriteError(w)
	}
}
