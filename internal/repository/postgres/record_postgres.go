package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"crudview/internal/model"
	"crudview/internal/repository"
)

const uniqueViolation = "23505"

// RecordPostgres is a PostgreSQL implementation of repository.Store driven by model.Meta.
// Field names are column names. It uses database/sql with parameterized queries and
// contains no business logic.
type RecordPostgres[T model.Record] struct {
	db      *sql.DB
	newFunc func() T
	meta    *model.Meta
}

// NewRecordPostgres creates a table store; newFunc returns an empty record.
func NewRecordPostgres[T model.Record](db *sql.DB, newFunc func() T) *RecordPostgres[T] {
	return &RecordPostgres[T]{db: db, newFunc: newFunc, meta: newFunc().Meta()}
}

// NewBookmarkPostgres returns the store for bookmarks.
func NewBookmarkPostgres(db *sql.DB) *RecordPostgres[*model.Bookmark] {
	return NewRecordPostgres(db, func() *model.Bookmark { return &model.Bookmark{} })
}

// NewDocumentPostgres returns the store for documents.
func NewDocumentPostgres(db *sql.DB) *RecordPostgres[*model.Document] {
	return NewRecordPostgres(db, func() *model.Document { return &model.Document{} })
}

var (
	_ repository.Store[*model.Bookmark] = (*RecordPostgres[*model.Bookmark])(nil)
	_ repository.Store[*model.Document] = (*RecordPostgres[*model.Document])(nil)
)

// IsNoRowsError reports whether err means the queried row does not exist.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, repository.ErrNotFound)
}

func (r *RecordPostgres[T]) New() T { return r.newFunc() }

// Count returns the number of rows matching the filters.
func (r *RecordPostgres[T]) Count(ctx context.Context, q repository.Query) (int, error) {
	where, args, err := r.where(q.Filters, nil)
	if err != nil {
		return 0, err
	}
	var total int
	query := "SELECT COUNT(*) FROM " + r.meta.Table + where
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// List returns rows using LIMIT/OFFSET pagination.
func (r *RecordPostgres[T]) List(ctx context.Context, q repository.Query) ([]T, error) {
	where, args, err := r.where(q.Filters, nil)
	if err != nil {
		return nil, err
	}
	order, err := r.orderBy(q.OrderBy)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + r.columns() + " FROM " + r.meta.Table + where + order)
	if q.Limit > 0 {
		args = append(args, q.Limit, q.Offset)
		fmt.Fprintf(&sb, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Get fetches a single row matching the lookup and the query filters.
func (r *RecordPostgres[T]) Get(ctx context.Context, q repository.Query, lookup repository.Lookup) (T, error) {
	var zero T
	f, err := r.meta.Field(lookup.Field)
	if err != nil {
		return zero, err
	}
	value, err := parseLookup(f, lookup.Value)
	if err != nil {
		// A malformed key cannot match any row.
		return zero, repository.ErrNotFound
	}

	where, args, err := r.where(q.Filters, &repository.Filter{Field: f.Name, Op: repository.OpExact, Value: value})
	if err != nil {
		return zero, err
	}
	query := "SELECT " + r.columns() + " FROM " + r.meta.Table + where
	rec, err := r.scan(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, repository.ErrNotFound
		}
		return zero, err
	}
	return rec, nil
}

// Save inserts a row when the primary key is zero and updates it otherwise.
func (r *RecordPostgres[T]) Save(ctx context.Context, rec T) (T, error) {
	if model.IsZeroPK(rec) {
		return r.insert(ctx, rec)
	}
	return r.update(ctx, rec)
}

// Delete removes a row by primary key. It does not return an error if the row does not exist.
func (r *RecordPostgres[T]) Delete(ctx context.Context, rec T) error {
	q := "DELETE FROM " + r.meta.Table + " WHERE " + r.meta.PK + " = $1"
	res, err := r.db.ExecContext(ctx, q, model.PK(rec))
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

func (r *RecordPostgres[T]) insert(ctx context.Context, rec T) (T, error) {
	var zero T
	pk, err := r.meta.Field(r.meta.PK)
	if err != nil {
		return zero, err
	}
	if pk.Kind == model.KindUUID {
		if err := rec.Set(pk.Name, uuid.New()); err != nil {
			return zero, err
		}
	}

	var cols, marks []string
	var args []any
	for _, f := range r.meta.Fields {
		if f.Name == pk.Name && pk.Kind == model.KindInt {
			// serial column
			continue
		}
		v, err := rec.Get(f.Name)
		if err != nil {
			return zero, err
		}
		if t, ok := v.(time.Time); ok && t.IsZero() && !f.Editable {
			v = time.Now().UTC()
		}
		args = append(args, v)
		cols = append(cols, f.Name)
		marks = append(marks, "$"+strconv.Itoa(len(args)))
	}

	q := "INSERT INTO " + r.meta.Table + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.Join(marks, ", ") + ") RETURNING " + r.columns()
	out, err := r.scan(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return zero, r.translate(err)
	}
	return out, nil
}

func (r *RecordPostgres[T]) update(ctx context.Context, rec T) (T, error) {
	var zero T
	var sets []string
	var args []any
	for _, f := range r.meta.Fields {
		if f.Name == r.meta.PK {
			continue
		}
		v, err := rec.Get(f.Name)
		if err != nil {
			return zero, err
		}
		args = append(args, v)
		sets = append(sets, f.Name+" = $"+strconv.Itoa(len(args)))
	}
	args = append(args, model.PK(rec))

	q := "UPDATE " + r.meta.Table + " SET " + strings.Join(sets, ", ") +
		" WHERE " + r.meta.PK + " = $" + strconv.Itoa(len(args)) + " RETURNING " + r.columns()
	out, err := r.scan(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, repository.ErrNotFound
		}
		return zero, r.translate(err)
	}
	return out, nil
}

// translate maps driver errors onto repository errors.
func (r *RecordPostgres[T]) translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &repository.ConflictError{Field: r.conflictField(pgErr.ConstraintName), Err: err}
	}
	return err
}

// conflictField recovers the column from a default "<table>_<column>_key" constraint name.
func (r *RecordPostgres[T]) conflictField(constraint string) string {
	name := strings.TrimSuffix(strings.TrimPrefix(constraint, r.meta.Table+"_"), "_key")
	if _, err := r.meta.Field(name); err != nil {
		return ""
	}
	return name
}

func (r *RecordPostgres[T]) columns() string {
	names := make([]string, len(r.meta.Fields))
	for i, f := range r.meta.Fields {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

func (r *RecordPostgres[T]) where(filters []repository.Filter, extra *repository.Filter) (string, []any, error) {
	if extra != nil {
		filters = append(filters[:len(filters):len(filters)], *extra)
	}
	if len(filters) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, flt := range filters {
		f, err := r.meta.Field(flt.Field)
		if err != nil {
			return "", nil, err
		}
		switch flt.Op {
		case repository.OpIContains:
			args = append(args, "%"+escapeLike(model.FormatValue(flt.Value))+"%")
			conds = append(conds, f.Name+" ILIKE $"+strconv.Itoa(len(args)))
		case repository.OpExact, "":
			args = append(args, flt.Value)
			conds = append(conds, f.Name+" = $"+strconv.Itoa(len(args)))
		default:
			return "", nil, fmt.Errorf("unsupported filter op %q", flt.Op)
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (r *RecordPostgres[T]) orderBy(fields []string) (string, error) {
	if len(fields) == 0 {
		return " ORDER BY " + r.meta.PK, nil
	}
	parts := make([]string, 0, len(fields))
	for _, name := range fields {
		dir := " ASC"
		if strings.HasPrefix(name, "-") {
			name, dir = name[1:], " DESC"
		}
		f, err := r.meta.Field(name)
		if err != nil {
			return "", err
		}
		parts = append(parts, f.Name+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *RecordPostgres[T]) scan(s scanner) (T, error) {
	var zero T
	dest := make([]any, len(r.meta.Fields))
	for i, f := range r.meta.Fields {
		switch f.Kind {
		case model.KindBool:
			dest[i] = new(bool)
		case model.KindInt:
			dest[i] = new(int64)
		case model.KindUUID:
			dest[i] = new(uuid.UUID)
		case model.KindTime:
			dest[i] = new(time.Time)
		default:
			dest[i] = new(sql.NullString)
		}
	}
	if err := s.Scan(dest...); err != nil {
		return zero, err
	}

	rec := r.newFunc()
	for i, f := range r.meta.Fields {
		var v any
		switch d := dest[i].(type) {
		case *bool:
			v = *d
		case *int64:
			v = *d
		case *uuid.UUID:
			v = *d
		case *time.Time:
			v = *d
		case *sql.NullString:
			v = d.String
		}
		if err := rec.Set(f.Name, v); err != nil {
			return zero, err
		}
	}
	return rec, nil
}

func parseLookup(f model.Field, raw string) (any, error) {
	switch f.Kind {
	case model.KindInt:
		return strconv.ParseInt(raw, 10, 64)
	case model.KindUUID:
		return uuid.Parse(raw)
	case model.KindBool:
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
