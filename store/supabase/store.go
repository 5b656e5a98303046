// Package supabase implements the list store on top of a Supabase project: a
// list is a table exposed through PostgREST.
package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/store"
	"github.com/NomadCrew/customer-feedback-portal/types"
	supa "github.com/supabase-community/supabase-go"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var _ store.ListStore = (*Store)(nil)

// postgrest-go reports failures as "(code) message".
var postgrestErrorPattern = regexp.MustCompile(`^\(([0-9A-Z]*)\)\s*(.*)$`)

// Config contains configuration for the Supabase list store.
type Config struct {
	URL     string
	Key     string
	Schema  string
	Timeout time.Duration
	// HTTPClient is used for the OpenAPI schema request.
	HTTPClient *http.Client
}

// Store reads table definitions from the PostgREST OpenAPI document and
// inserts rows with supabase-go.
type Store struct {
	client     *supa.Client
	url        string
	key        string
	schema     string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// NewStore creates a Supabase-backed list store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("supabase URL and key are required")
	}
	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}

	client, err := supa.NewClient(strings.TrimRight(cfg.URL, "/"), cfg.Key, &supa.ClientOptions{Schema: schema})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Store{
		client:     client,
		url:        strings.TrimRight(cfg.URL, "/"),
		key:        cfg.Key,
		schema:     schema,
		httpClient: httpClient,
		log:        logger.GetLogger(),
	}, nil
}

// Fields lists the columns of the table named list.
func (s *Store) Fields(ctx context.Context, list string) ([]types.FieldDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"/rest/v1/", nil)
	if err != nil {
		return nil, &store.RemoteError{Op: store.OpFetchSchema, Kind: store.KindRejected, List: list, Err: err}
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept", "application/openapi+json")
	if s.schema != "public" {
		req.Header.Set("Accept-Profile", s.schema)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &store.RemoteError{Op: store.OpFetchSchema, Kind: store.KindNetwork, List: list, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &store.RemoteError{Op: store.OpFetchSchema, Kind: store.KindNetwork, List: list, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &store.RemoteError{
			Op:         store.OpFetchSchema,
			Kind:       store.KindForStatus(resp.StatusCode),
			List:       list,
			StatusCode: resp.StatusCode,
			Message:    gjson.GetBytes(body, "message").String(),
			Err:        fmt.Errorf("supabase returned status %d", resp.StatusCode),
		}
	}

	properties := gjson.GetBytes(body, "definitions."+gjson.Escape(list)+".properties")
	if !properties.IsObject() {
		return nil, &store.RemoteError{
			Op:      store.OpFetchSchema,
			Kind:    store.KindNotFound,
			List:    list,
			Message: fmt.Sprintf("Table %q is not exposed by the API.", list),
		}
	}

	var fields []types.FieldDescriptor
	properties.ForEach(func(name, prop gjson.Result) bool {
		fields = append(fields, types.FieldDescriptor{
			InternalName: name.String(),
			Title:        prop.Get("description").String(),
		})
		return true
	})
	sort.Slice(fields, func(i, j int) bool { return fields[i].InternalName < fields[j].InternalName })

	s.log.Debugw("Fetched table definition", "table", list, "fieldCount", len(fields))
	return fields, nil
}

// AddItem inserts one row and returns its representation.
func (s *Store) AddItem(ctx context.Context, list string, record types.Record) (types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &store.RemoteError{Op: store.OpCreateItem, Kind: store.KindNetwork, List: list, Err: err}
	}

	data, _, err := s.client.From(list).Insert(map[string]interface{}(record), false, "", "representation", "").Execute()
	if err != nil {
		return nil, classify(list, err)
	}

	rows := gjson.ParseBytes(data)
	if rows.IsArray() && len(rows.Array()) > 0 {
		rows = rows.Array()[0]
	}
	if created, ok := rows.Value().(map[string]interface{}); ok {
		return types.Record(created), nil
	}
	return types.Record{}, nil
}

// classify maps a postgrest-go error onto a RemoteError.
func classify(list string, err error) *store.RemoteError {
	if store.IsNetworkError(err) {
		return &store.RemoteError{Op: store.OpCreateItem, Kind: store.KindNetwork, List: list, Err: err}
	}

	code, message := "", err.Error()
	if m := postgrestErrorPattern.FindStringSubmatch(err.Error()); m != nil {
		code, message = m[1], m[2]
	}

	return &store.RemoteError{
		Op:      store.OpCreateItem,
		Kind:    kindForCode(code),
		List:    list,
		Message: message,
		Err:     err,
	}
}

func kindForCode(code string) store.ErrorKind {
	switch {
	case code == "42501", code == "PGRST301", code == "PGRST302":
		return store.KindAuthorization
	case code == "42P01", code == "PGRST205":
		return store.KindNotFound
	default:
		return store.KindRejected
	}
}
