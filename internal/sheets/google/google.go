package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"faxina/internal/core"
	"faxina/internal/log"
	ports "faxina/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// lastColumn is the column letter of the last Header entry.
const lastColumn = "H"

// Client mirrors payments into one tab of a Google spreadsheet. Column A
// holds the payment ID and is the lookup key for updates and deletes.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	// mu serializes find-then-write sequences so two upserts of a new ID
	// cannot both append.
	mu sync.Mutex
}

var _ ports.PaymentMirror = (*Client)(nil)

// NewWithCredentials creates a client authenticated with a service account
// key.
func NewWithCredentials(ctx context.Context, credentialsJSON []byte, spreadsheetID, sheetName string, logger *log.Logger) (*Client, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}
	return New(ctx, spreadsheetID, sheetName, logger,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// New creates a client from arbitrary client options.
func New(ctx context.Context, spreadsheetID, sheetName string, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Pagamentos"
	}
	if logger == nil {
		logger = log.Discard()
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger = logger.WithComponent(log.ComponentSheets)
	logger.InfoContext(ctx, "Google Sheets service created", "sheet", sheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

// UpsertPayment rewrites the payment's row in place, or appends one when
// the ID is not in the sheet yet. An empty sheet gets the header first.
func (c *Client) UpsertPayment(ctx context.Context, p core.Payment) error {
	if p.ID == "" {
		return errors.New("payment without ID")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		if err := c.writeRow(ctx, 1, ports.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		ids = []string{ports.Header[0]}
	}

	row := ports.Row(p)
	if n := indexOf(ids, p.ID); n >= 0 {
		if err := c.writeRow(ctx, n+1, row); err != nil {
			return fmt.Errorf("update row for %s: %w", p.ID, err)
		}
		c.logger.DebugContext(ctx, "Updated mirrored payment", log.FieldPaymentID, p.ID, "row", n+1)
		return nil
	}

	vr := &gsheet.ValueRange{Values: [][]any{toValues(row)}}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rangeOf("A:"+lastColumn), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row for %s: %w", p.ID, err)
	}
	c.logger.DebugContext(ctx, "Appended mirrored payment", log.FieldPaymentID, p.ID)
	return nil
}

// DeletePayment blanks the payment's row. Missing IDs are not an error;
// the row may never have been mirrored.
func (c *Client) DeletePayment(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	n := indexOf(ids, id)
	if n < 1 {
		c.logger.DebugContext(ctx, "Payment not mirrored, nothing to delete", log.FieldPaymentID, id)
		return nil
	}

	rowNum := n + 1
	rng := c.rangeOf(fmt.Sprintf("A%d:%s%d", rowNum, lastColumn, rowNum))
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear row for %s: %w", id, err)
	}
	c.logger.DebugContext(ctx, "Cleared mirrored payment", log.FieldPaymentID, id, "row", rowNum)
	return nil
}

func (c *Client) readIDs(ctx context.Context) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rangeOf("A:A")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read IDs from %s: %w", c.sheetName, err)
	}
	ids := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if cells := toStrings(row); len(cells) > 0 {
			ids[i] = cells[0]
		}
	}
	return ids, nil
}

func (c *Client) writeRow(ctx context.Context, rowNum int, row []string) error {
	rng := c.rangeOf(fmt.Sprintf("A%d:%s%d", rowNum, lastColumn, rowNum))
	vr := &gsheet.ValueRange{Values: [][]any{toValues(row)}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

// rangeOf qualifies cells with the quoted sheet name.
func (c *Client) rangeOf(cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(c.sheetName, "'", "''"), cells)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func toValues(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if v == target {
			return i
		}
	}
	return -1
}
