package client

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
	apihttp "expenses/internal/http"
	applog "expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/storage/memory"
)

func newAPIServer(t *testing.T, seed ...core.Expense) *Client {
	t.Helper()
	logger := applog.New(applog.Config{Output: &bytes.Buffer{}})
	svc := services.NewExpenseService(memory.New(seed...), nil, logger)
	srv, err := apihttp.NewServer(svc, apihttp.Options{Logger: logger, RateLimitPerMinute: 1000})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})

	c, err := New(ts.URL + "/")
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)

	_, err = New("://")
	assert.Error(t, err)
}

func TestClient_CRUD(t *testing.T) {
	ctx := context.Background()
	c := newAPIServer(t)

	list := c.List(ctx)
	require.True(t, list.OK())
	assert.Empty(t, list.Value)
	assert.NotNil(t, list.Value)

	created := c.Create(ctx, core.ExpenseInput{Name: "Coffee", Amount: "3.5", Category: "Food"})
	require.True(t, created.OK(), "create: %v", created.Err)
	assert.Equal(t, "Coffee", created.Value.Name)
	assert.Equal(t, "3.50", created.Value.Amount.String())

	updated := c.Update(ctx, created.Value.ID, core.ExpenseInput{Name: "Latte", Amount: "4", Category: "Food"})
	require.True(t, updated.OK(), "update: %v", updated.Err)
	assert.Equal(t, created.Value.ID, updated.Value.ID)
	assert.Equal(t, "Latte", updated.Value.Name)

	list = c.List(ctx)
	require.True(t, list.OK())
	require.Len(t, list.Value, 1)
	assert.Equal(t, "4.00", list.Value[0].Amount.String())

	deleted := c.Delete(ctx, created.Value.ID)
	require.True(t, deleted.OK(), "delete: %v", deleted.Err)

	list = c.List(ctx)
	require.True(t, list.OK())
	assert.Empty(t, list.Value)
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	c := newAPIServer(t)

	res := c.Create(ctx, core.ExpenseInput{Name: "Coffee"})
	require.False(t, res.OK())
	var apiErr *APIError
	require.ErrorAs(t, res.Err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "All fields are required.", apiErr.Message)

	del := c.Delete(ctx, 404)
	require.False(t, del.OK())
	assert.True(t, IsNotFound(del.Err))

	upd := c.Update(ctx, 7, core.ExpenseInput{Name: "a", Amount: "1", Category: "b"})
	assert.True(t, IsNotFound(upd.Err))
}

func TestClient_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Server error"}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	res := c.List(context.Background())
	require.False(t, res.OK())
	assert.EqualError(t, res.Err, "api: 500 Server error")

	_, err = res.Unwrap()
	assert.Error(t, err)
}

func TestClient_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := New(url)
	require.NoError(t, err)
	res := c.List(context.Background())
	assert.False(t, res.OK())
	assert.False(t, IsNotFound(res.Err))
}

func TestAPIError_Message(t *testing.T) {
	assert.Equal(t, "api: 404 Not Found", (&APIError{StatusCode: 404}).Error())
	assert.Equal(t, "api: 404 Expense not found.", (&APIError{StatusCode: 404, Message: "Expense not found."}).Error())
}
