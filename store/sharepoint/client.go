// Package sharepoint implements the list store against the SharePoint REST API.
package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/store"
	"github.com/NomadCrew/customer-feedback-portal/types"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	acceptHeader      = "application/json;odata=nometadata"
	contentTypeHeader = "application/json;odata=nometadata"
	maxErrorBody      = 64 << 10
)

var (
	_ store.ListStore        = (*Client)(nil)
	_ store.IdentityProvider = (*Client)(nil)
)

// Config contains configuration for the SharePoint list client.
type Config struct {
	SiteURL     string
	AccessToken string
	Timeout     time.Duration
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

// Client talks to the lists of one SharePoint site.
type Client struct {
	siteURL     string
	accessToken string
	httpClient  *http.Client
	log         *zap.SugaredLogger
}

// NewClient creates a SharePoint list client.
func NewClient(cfg Config) (*Client, error) {
	site := strings.TrimRight(cfg.SiteURL, "/")
	if site == "" {
		return nil, fmt.Errorf("sharepoint site URL is required")
	}
	if _, err := url.ParseRequestURI(site); err != nil {
		return nil, fmt.Errorf("invalid sharepoint site URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		siteURL:     site,
		accessToken: cfg.AccessToken,
		httpClient:  httpClient,
		log:         logger.GetLogger(),
	}, nil
}

// Fields returns the fields of the named list.
func (c *Client) Fields(ctx context.Context, list string) ([]types.FieldDescriptor, error) {
	endpoint := c.listURL(list) + "/fields?$select=InternalName,Title"

	body, err := c.do(ctx, store.OpFetchSchema, list, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	results := gjson.GetBytes(body, "value")
	if !results.Exists() {
		results = gjson.GetBytes(body, "d.results")
	}
	if !results.IsArray() {
		return nil, &store.RemoteError{
			Op:   store.OpFetchSchema,
			Kind: store.KindRejected,
			List: list,
			Err:  fmt.Errorf("unexpected fields response"),
		}
	}

	fields := make([]types.FieldDescriptor, 0, len(results.Array()))
	results.ForEach(func(_, field gjson.Result) bool {
		name := field.Get("InternalName").String()
		if name != "" {
			fields = append(fields, types.FieldDescriptor{
				InternalName: name,
				Title:        field.Get("Title").String(),
			})
		}
		return true
	})

	c.log.Debugw("Fetched list schema", "list", list, "fieldCount", len(fields))
	return fields, nil
}

// AddItem creates one list item.
func (c *Client) AddItem(ctx context.Context, list string, record types.Record) (types.Record, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, &store.RemoteError{Op: store.OpCreateItem, Kind: store.KindRejected, List: list, Err: err}
	}

	body, err := c.do(ctx, store.OpCreateItem, list, http.MethodPost, c.listURL(list)+"/items", payload)
	if err != nil {
		return nil, err
	}

	created := gjson.ParseBytes(body)
	if d := created.Get("d"); d.IsObject() {
		created = d
	}
	item, ok := created.Value().(map[string]interface{})
	if !ok {
		return types.Record{}, nil
	}
	return types.Record(item), nil
}

// CurrentUser returns the user the access token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*types.Identity, error) {
	body, err := c.do(ctx, store.OpCurrentUser, "", http.MethodGet, c.siteURL+"/_api/web/currentuser", nil)
	if err != nil {
		return nil, err
	}

	user := gjson.ParseBytes(body)
	if d := user.Get("d"); d.IsObject() {
		user = d
	}
	return &types.Identity{
		DisplayName: user.Get("Title").String(),
		Email:       user.Get("Email").String(),
	}, nil
}

// listURL addresses a list by its title. Single quotes are doubled for OData.
func (c *Client) listURL(list string) string {
	title := url.PathEscape(strings.ReplaceAll(list, "'", "''"))
	return fmt.Sprintf("%s/_api/web/lists/getbytitle('%s')", c.siteURL, title)
}

func (c *Client) do(ctx context.Context, op store.Operation, list, method, endpoint string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, &store.RemoteError{Op: op, Kind: store.KindRejected, List: list, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", acceptHeader)
	if payload != nil {
		req.Header.Set("Content-Type", contentTypeHeader)
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &store.RemoteError{Op: op, Kind: store.KindNetwork, List: list, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		remoteErr := &store.RemoteError{
			Op:         op,
			Kind:       store.KindForStatus(resp.StatusCode),
			List:       list,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
			Err:        fmt.Errorf("sharepoint returned status %d", resp.StatusCode),
		}
		c.log.Warnw("SharePoint request failed",
			"operation", op,
			"list", list,
			"status", resp.StatusCode,
			"error", remoteErr.Message)
		return nil, remoteErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &store.RemoteError{Op: op, Kind: store.KindNetwork, List: list, StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}

// errorMessage extracts the OData error text from a failure body.
func errorMessage(body []byte) string {
	for _, path := range []string{`odata\.error.message.value`, "error.message.value", "error.message", "error_description"} {
		if msg := gjson.GetBytes(body, path); msg.Exists() && msg.Type == gjson.String {
			return msg.String()
		}
	}
	return ""
}
