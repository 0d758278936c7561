package http_test

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/service"
	"github.com/aussiebroadwan/tickbox/pkg/tickboxsdk"
)

func TestTodos_CRUD(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	tok := srv.login(t, "owner@example.com").AccessToken

	created, err := srv.Client.CreateTodo(ctx, tok, "Buy milk", "x<y and y>z")
	require.NoError(t, err)
	require.Equal(t, "Buy milk", created.Title)
	require.Equal(t, "x<y and y>z", created.Body)
	require.False(t, created.IsCompleted)
	require.Nil(t, created.DeletedAt)

	updated, err := srv.Client.UpdateTodo(ctx, tok, created.ID, tickboxsdk.UpdateTodoRequest{
		Title:       "Buy oat milk",
		Body:        "a<b>c",
		IsCompleted: true,
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "Buy oat milk", updated.Title)
	require.Equal(t, "a<b>c", updated.Body)
	require.True(t, updated.IsCompleted)
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	list, err := srv.Client.ListTodos(ctx, tok, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Buy oat milk", list[0].Title)

	require.NoError(t, srv.Client.DeleteTodo(ctx, tok, created.ID))

	list, err = srv.Client.ListTodos(ctx, tok, 1)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestTodos_CreateRequiresTitleAndBody(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	tok := srv.login(t, "owner@example.com").AccessToken

	_, err := srv.Client.CreateTodo(ctx, tok, "<p></p>", "")

	var verr *tickboxsdk.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, http.StatusBadRequest, verr.StatusCode)
	require.Len(t, verr.Details, 2)
	require.True(t, verr.HasCode(service.CodeRequired))
}

func TestTodos_Paging(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	tok := srv.login(t, "pager@example.com").AccessToken

	for i := 1; i <= 7; i++ {
		_, err := srv.Client.CreateTodo(ctx, tok, fmt.Sprintf("todo %d", i), "body")
		require.NoError(t, err)
	}

	first, err := srv.Client.ListTodos(ctx, tok, 1)
	require.NoError(t, err)
	require.Len(t, first, 5)
	require.Equal(t, "todo 1", first[0].Title)

	second, err := srv.Client.ListTodos(ctx, tok, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.Equal(t, "todo 6", second[0].Title)
	require.Equal(t, "todo 7", second[1].Title)

	third, err := srv.Client.ListTodos(ctx, tok, 3)
	require.NoError(t, err)
	require.Empty(t, third)

	t.Run("page below one is the first page", func(t *testing.T) {
		got, err := srv.Client.ListTodos(ctx, tok, 0)
		require.NoError(t, err)
		require.Equal(t, first, got)
	})

	t.Run("huge page is empty", func(t *testing.T) {
		got, err := srv.Client.ListTodos(ctx, tok, math.MaxInt)
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("non-integer page", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+tickboxsdk.PathTodos+"?pageNumber=two", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestTodos_Isolation(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	alice := srv.login(t, "alice@example.com").AccessToken
	bob := srv.login(t, "bob@example.com").AccessToken

	todo, err := srv.Client.CreateTodo(ctx, alice, "alice's", "private")
	require.NoError(t, err)

	t.Run("other users do not see it", func(t *testing.T) {
		list, err := srv.Client.ListTodos(ctx, bob, 1)
		require.NoError(t, err)
		require.Empty(t, list)
	})

	t.Run("other users cannot update it", func(t *testing.T) {
		_, err := srv.Client.UpdateTodo(ctx, bob, todo.ID, tickboxsdk.UpdateTodoRequest{Title: "mine", Body: "now"})
		requireOAuth2Error(t, err, http.StatusUnauthorized, tickboxsdk.ErrorCodeUnauthorized, "")
	})

	t.Run("other users cannot delete it", func(t *testing.T) {
		err := srv.Client.DeleteTodo(ctx, bob, todo.ID)
		requireOAuth2Error(t, err, http.StatusUnauthorized, tickboxsdk.ErrorCodeUnauthorized, "")
	})

	t.Run("owner still can", func(t *testing.T) {
		list, err := srv.Client.ListTodos(ctx, alice, 1)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "alice's", list[0].Title)

		require.NoError(t, srv.Client.DeleteTodo(ctx, alice, todo.ID))
	})

	require.Equal(t, float64(2), denials(t, srv, service.DenyNotOwner))
}

func TestTodoGuard(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	tok := srv.login(t, "guarded@example.com").AccessToken

	tests := []struct {
		name   string
		id     string
		status int
		code   string
		reason string
	}{
		{
			name:   "malformed id",
			id:     "not-a-uuid",
			status: http.StatusBadRequest,
			code:   tickboxsdk.ErrorCodeBadRequest,
			reason: service.DenyBadID,
		},
		{
			name:   "unknown id",
			id:     uuid.NewString(),
			status: http.StatusUnauthorized,
			code:   tickboxsdk.ErrorCodeUnauthorized,
			reason: service.DenyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := srv.Client.DeleteTodo(ctx, tok, tt.id)
			requireOAuth2Error(t, err, tt.status, tt.code, "")

			_, err = srv.Client.UpdateTodo(ctx, tok, tt.id, tickboxsdk.UpdateTodoRequest{Title: "t", Body: "b"})
			requireOAuth2Error(t, err, tt.status, tt.code, "")

			require.Equal(t, float64(2), denials(t, srv, tt.reason))
		})
	}

	t.Run("no bearer token", func(t *testing.T) {
		err := srv.Client.DeleteTodo(ctx, "", uuid.NewString())
		requireOAuth2Error(t, err, http.StatusUnauthorized, tickboxsdk.ErrorCodeInvalidToken, "")
	})
}

// denials reads the guard's denial counter for reason from the registry.
func denials(t *testing.T, srv *testServer, reason string) float64 {
	t.Helper()

	families, err := srv.Registry.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != "tickbox_authz_denials_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "reason" && lp.GetValue() == reason {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
