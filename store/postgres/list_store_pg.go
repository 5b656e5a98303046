// Package postgres implements the list store on a PostgreSQL database, where a
// list is a table and its columns are the list fields.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/store"
	"github.com/NomadCrew/customer-feedback-portal/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Ensure pgListStore implements store.ListStore.
var _ store.ListStore = (*pgListStore)(nil)

// Querier is the subset of pgxpool.Pool used by the list store.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgListStore struct {
	db     Querier
	schema string
}

// NewPgListStore creates a PostgreSQL list store. Tables are looked up in
// schema, "public" when empty.
func NewPgListStore(db Querier, schema string) store.ListStore {
	if schema == "" {
		schema = "public"
	}
	return &pgListStore{db: db, schema: schema}
}

const columnsQuery = `
	SELECT column_name
	FROM information_schema.columns
	WHERE table_schema = $1 AND table_name = $2
	ORDER BY ordinal_position`

// Fields implements store.ListStore.
func (s *pgListStore) Fields(ctx context.Context, list string) ([]types.FieldDescriptor, error) {
	rows, err := s.db.Query(ctx, columnsQuery, s.schema, list)
	if err != nil {
		return nil, classify(store.OpFetchSchema, list, err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, classify(store.OpFetchSchema, list, err)
	}

	// information_schema hides tables the role cannot see, so no rows means
	// the list is missing as far as this role is concerned.
	if len(names) == 0 {
		return nil, &store.RemoteError{
			Op:      store.OpFetchSchema,
			Kind:    store.KindNotFound,
			List:    list,
			Message: fmt.Sprintf("Table %q does not exist.", list),
		}
	}

	fields := make([]types.FieldDescriptor, 0, len(names))
	for _, name := range names {
		fields = append(fields, types.FieldDescriptor{InternalName: name, Title: name})
	}

	logger.GetLogger().Debugw("Fetched table columns", "table", list, "columnCount", len(fields))
	return fields, nil
}

// AddItem implements store.ListStore. Keys become quoted column identifiers,
// values are bound as parameters.
func (s *pgListStore) AddItem(ctx context.Context, list string, record types.Record) (types.Record, error) {
	query, args := buildInsert(s.schema, list, record)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(store.OpCreateItem, list, err)
	}

	created, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, classify(store.OpCreateItem, list, err)
	}

	return types.Record(created), nil
}

func buildInsert(schema, list string, record types.Record) (string, []any) {
	table := pgx.Identifier{schema, list}.Sanitize()
	if len(record) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", table), nil
	}

	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	columns := make([]string, len(keys))
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		columns[i] = pgx.Identifier{k}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = record[k]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	return query, args
}

// classify maps a pgx error onto a RemoteError.
func classify(op store.Operation, list string, err error) *store.RemoteError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &store.RemoteError{
			Op:      op,
			Kind:    kindForSQLState(pgErr.Code),
			List:    list,
			Message: pgErr.Message,
			Err:     err,
		}
	}

	kind := store.KindNetwork
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, pgx.ErrTooManyRows) {
		kind = store.KindRejected
	}
	return &store.RemoteError{Op: op, Kind: kind, List: list, Err: err}
}

func kindForSQLState(code string) store.ErrorKind {
	switch {
	case code == "42501", code == "28000", code == "28P01":
		return store.KindAuthorization
	case code == "42P01", code == "3F000":
		return store.KindNotFound
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "57P"):
		return store.KindNetwork
	default:
		return store.KindRejected
	}
}
