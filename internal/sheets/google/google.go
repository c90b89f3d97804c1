// Package google mirrors expenses into a Google Sheets tab using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expenses/internal/core"
	"expenses/internal/sheets"
)

var _ sheets.Mirror = (*Client)(nil)

// Config selects the spreadsheet, the tab and the service account.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates a Sheets client. Extra options replace the credential
// options, which lets tests point the client at a local server.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		cfg.SheetName = "Expenses"
	}

	if len(opts) == 0 {
		credentialsJSON, err := loadCredentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
			goption.WithHTTPClient(newHTTPClientWithPooling()),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets client initialized",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", cfg.SheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// newHTTPClientWithPooling keeps connections to the Sheets API alive
// between events.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Upsert implements sheets.Mirror.
func (c *Client) Upsert(ctx context.Context, e core.Expense) error {
	column, err := c.readIDColumn(ctx)
	if err != nil {
		return err
	}

	values := &gsheet.ValueRange{Values: [][]any{rowValues(e)}}

	if len(column) == 0 {
		values.Values = append([][]any{headerRow()}, values.Values...)
	}

	if row := findRow(column, e.ID); row > 0 {
		rng := c.a1(fmt.Sprintf("A%d:D%d", row, row))
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, values).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update row %d in sheet %s: %w", row, c.sheetName, err)
		}
		slog.DebugContext(ctx, "Updated sheet row", "id", e.ID, "row", row)
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.a1("A:D"), values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to sheet %s: %w", c.sheetName, err)
	}
	slog.DebugContext(ctx, "Appended sheet row", "id", e.ID)
	return nil
}

// Remove implements sheets.Mirror.
func (c *Client) Remove(ctx context.Context, id int64) error {
	column, err := c.readIDColumn(ctx)
	if err != nil {
		return err
	}
	row := findRow(column, id)
	if row == 0 {
		return nil
	}

	rng := c.a1(fmt.Sprintf("A%d:D%d", row, row))
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row %d in sheet %s: %w", row, c.sheetName, err)
	}
	slog.DebugContext(ctx, "Cleared sheet row", "id", id, "row", row)
	return nil
}

// Sync implements sheets.Mirror. It reads the id column once and issues
// at most one batch update, one batch clear and one append.
func (c *Client) Sync(ctx context.Context, expenses []core.Expense) (sheets.SyncResult, error) {
	var res sheets.SyncResult
	column, err := c.readIDColumn(ctx)
	if err != nil {
		return res, err
	}

	live := make(map[int64]bool, len(expenses))
	var updates []*gsheet.ValueRange
	var appends [][]any
	for _, e := range expenses {
		live[e.ID] = true
		if row := findRow(column, e.ID); row > 0 {
			updates = append(updates, &gsheet.ValueRange{
				Range:  c.a1(fmt.Sprintf("A%d:D%d", row, row)),
				Values: [][]any{rowValues(e)},
			})
			continue
		}
		appends = append(appends, rowValues(e))
	}

	var stale []string
	for i, cell := range column {
		if id, ok := parseID(cell); ok && !live[id] {
			stale = append(stale, c.a1(fmt.Sprintf("A%d:D%d", i+1, i+1)))
		}
	}

	if len(updates) > 0 {
		_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data:             updates,
		}).Context(ctx).Do()
		if err != nil {
			return res, fmt.Errorf("batch update sheet %s: %w", c.sheetName, err)
		}
		res.Updated = len(updates)
	}

	if len(stale) > 0 {
		_, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{
			Ranges: stale,
		}).Context(ctx).Do()
		if err != nil {
			return res, fmt.Errorf("batch clear sheet %s: %w", c.sheetName, err)
		}
		res.Removed = len(stale)
	}

	if n := len(appends); n > 0 {
		if len(column) == 0 {
			appends = append([][]any{headerRow()}, appends...)
		}
		_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.a1("A:D"), &gsheet.ValueRange{Values: appends}).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return res, fmt.Errorf("append rows to sheet %s: %w", c.sheetName, err)
		}
		res.Appended = n
	}

	slog.DebugContext(ctx, "Synced sheet",
		"updated", res.Updated,
		"appended", res.Appended,
		"removed", res.Removed)
	return res, nil
}

// IDs implements sheets.Mirror.
func (c *Client) IDs(ctx context.Context) ([]int64, error) {
	column, err := c.readIDColumn(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(column))
	for _, cell := range column {
		if id, ok := parseID(cell); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// readIDColumn returns column A, one entry per row starting at row 1.
func (c *Client) readIDColumn(ctx context.Context) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.a1("A:A")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read id column of sheet %s: %w", c.sheetName, err)
	}
	column := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 {
			column[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}
	return column, nil
}

func (c *Client) a1(rng string) string {
	return "'" + strings.ReplaceAll(c.sheetName, "'", "''") + "'!" + rng
}

func headerRow() []any {
	header := make([]any, len(sheets.Header))
	for i, h := range sheets.Header {
		header[i] = h
	}
	return header
}

func rowValues(e core.Expense) []any {
	return []any{e.ID, e.Name, e.Amount.String(), e.Category}
}

// findRow returns the 1-based row holding id, or 0.
func findRow(column []string, id int64) int {
	for i, cell := range column {
		if got, ok := parseID(cell); ok && got == id {
			return i + 1
		}
	}
	return 0
}

func parseID(cell string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
