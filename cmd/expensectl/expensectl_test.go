package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
	apihttp "expenses/internal/http"
	applog "expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/storage/memory"
)

func startAPI(t *testing.T, seed ...core.Expense) string {
	t.Helper()
	logger := applog.New(applog.Config{Output: &bytes.Buffer{}})
	srv, err := apihttp.NewServer(services.NewExpenseService(memory.New(seed...), nil, logger),
		apihttp.Options{Logger: logger, RateLimitPerMinute: 1000})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return ts.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAddListUpdateDelete(t *testing.T) {
	url := startAPI(t)

	out, err := run(t, "--api-url", url, "add", "--name", "Coffee", "--amount", "3.5")
	require.NoError(t, err)
	assert.Equal(t, "Added expense 1: Coffee 3.50 (Groceries)\n", out)

	out, err = run(t, "--api-url", url, "update", "1", "--name", "Latte", "--amount", "4", "--category", "Food")
	require.NoError(t, err)
	assert.Equal(t, "Updated expense 1: Latte 4.00 (Food)\n", out)

	out, err = run(t, "--api-url", url, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Latte")
	assert.Contains(t, out, "4.00")
	assert.Contains(t, out, "NAME")

	out, err = run(t, "--api-url", url, "list", "--json")
	require.NoError(t, err)
	var listed []core.Expense
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Food", listed[0].Category)

	out, err = run(t, "--api-url", url, "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted expense 1\n", out)

	out, err = run(t, "--api-url", url, "list")
	require.NoError(t, err)
	assert.Equal(t, "No expenses.\n", out)
}

func TestDeleteUnknown(t *testing.T) {
	url := startAPI(t)

	_, err := run(t, "--api-url", url, "delete", "9")
	assert.EqualError(t, err, "expense 9 not found")

	_, err = run(t, "--api-url", url, "delete", "abc")
	assert.EqualError(t, err, `invalid expense id "abc"`)
}

func TestUpdateRequiresAllFields(t *testing.T) {
	url := startAPI(t, core.Expense{Name: "Coffee", Amount: core.MustParseAmount("1"), Category: "Food"})

	_, err := run(t, "--api-url", url, "update", "1", "--name", "Latte")
	assert.Error(t, err)
}

func TestAddRejectedByServer(t *testing.T) {
	url := startAPI(t)

	_, err := run(t, "--api-url", url, "add", "--name", "Coffee", "--amount", " ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "All fields are required.")
}

func TestAPIURLFromEnvAndConfig(t *testing.T) {
	url := startAPI(t, core.Expense{Name: "Rent", Amount: core.MustParseAmount("900"), Category: "Utilities"})

	t.Run("env", func(t *testing.T) {
		t.Setenv("EXPENSES_API_URL", url)
		out, err := run(t, "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Rent")
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("api_url: "+url+"\n"), 0o600))
		out, err := run(t, "--config", path, "list")
		require.NoError(t, err)
		assert.Contains(t, out, "900.00")
	})

	t.Run("home config", func(t *testing.T) {
		home := t.TempDir()
		dir := filepath.Join(home, ".config", "expenses")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api_url: "+url+"\n"), 0o600))

		root := newRootCmd()
		t.Setenv("HOME", home)
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs([]string{"list"})
		require.NoError(t, root.Execute())
		assert.Contains(t, out.String(), "Rent")
	})

	t.Run("missing explicit config", func(t *testing.T) {
		_, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "list")
		assert.Error(t, err)
	})
}

func TestInvalidAPIURL(t *testing.T) {
	_, err := run(t, "--api-url", "ftp://example.com", "list")
	assert.Error(t, err)
}
