package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Client works on one spreadsheet through the Sheets v4 API.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

// NewServiceAccountClient authorizes with a service account key file's contents.
func NewServiceAccountClient(ctx context.Context, credentialsJSON []byte, spreadsheetID string) (*Client, error) {
	cfg, err := google.JWTConfigFromJSON(credentialsJSON, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}
	return NewClient(ctx, spreadsheetID, option.WithHTTPClient(cfg.Client(ctx)))
}

// NewClient builds a client from explicit options, e.g. an endpoint and HTTP client.
func NewClient(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// SheetTitles lists the tab names of the spreadsheet.
func (c *Client) SheetTitles(ctx context.Context) ([]string, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

// AddSheet creates a tab with the given grid size.
func (c *Client) AddSheet(ctx context.Context, title string, rows, cols int) error {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{
					Title: title,
					GridProperties: &sheetsapi.GridProperties{
						RowCount:    int64(rows),
						ColumnCount: int64(cols),
					},
				},
			},
		}},
	}
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	return err
}

// Values reads a range as display strings. Trailing empty cells are omitted by the API,
// so rows may be shorter than the range.
func (c *Client) Values(ctx context.Context, rng string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				rows[i][j] = fmt.Sprint(cell)
			}
		}
	}
	return rows, nil
}

func valueRange(rng string, rows [][]string) *sheetsapi.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}
	return &sheetsapi.ValueRange{Range: rng, MajorDimension: "ROWS", Values: values}
}

// Append adds rows after the last non-empty row of the range, stored verbatim.
func (c *Client) Append(ctx context.Context, rng string, rows [][]string) error {
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, valueRange("", rows)).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// Update overwrites a single range.
func (c *Client) Update(ctx context.Context, rng string, rows [][]string) error {
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, valueRange(rng, rows)).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// RangeUpdate is one target of BatchUpdate.
type RangeUpdate struct {
	Range string
	Rows  [][]string
}

// BatchUpdate overwrites several ranges in one request.
func (c *Client) BatchUpdate(ctx context.Context, updates []RangeUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	req := &sheetsapi.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             make([]*sheetsapi.ValueRange, 0, len(updates)),
	}
	for _, u := range updates {
		req.Data = append(req.Data, valueRange(u.Range, u.Rows))
	}
	_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	return err
}
