// Package store is agora's data access layer: a generic accessor over one
// GORM model plus the aggregate queries each entity needs.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Accessor performs the common reads and writes against T's table.
type Accessor[T any] struct {
	db     *gorm.DB
	logger *slog.Logger
	inTx   bool
}

// NewAccessor binds an accessor for T to db.
func NewAccessor[T any](db *gorm.DB, logger *slog.Logger) *Accessor[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accessor[T]{db: db, logger: logger}
}

// WithTx returns a copy of the accessor that runs on tx.
func (a *Accessor[T]) WithTx(tx *gorm.DB) *Accessor[T] {
	return &Accessor[T]{db: tx, logger: a.logger, inTx: true}
}

func (a *Accessor[T]) query(ctx context.Context, conds []Cond[T]) *gorm.DB {
	tx := a.db.WithContext(ctx).Model(new(T))
	for _, c := range conds {
		tx = tx.Where(c.expr)
	}
	return tx
}

func (a *Accessor[T]) table() string {
	stmt := &gorm.Statement{DB: a.db}
	if err := stmt.Parse(new(T)); err != nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return stmt.Schema.Table
}

// Newest returns the most recent row ordered by a timestamp column, or nil
// when the table is empty.
func (a *Accessor[T]) Newest(ctx context.Context, by AnyColumn[T]) (*T, error) {
	var rows []T
	err := a.query(ctx, nil).
		Order(clause.OrderByColumn{Column: by.ref(), Desc: true}).
		Order(clause.OrderByColumn{Column: clause.PrimaryColumn, Desc: true}).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListQuery describes a paged listing.
type ListQuery[T any] struct {
	// SearchIn and Search apply a substring filter. An empty Search is no filter.
	SearchIn AnyColumn[T]
	Search   string
	Where    []Cond[T]
	Preload  []Relation[T]
	// Zero Limit or Offset means unset.
	Limit  int
	Offset int
}

// List returns rows in primary key order. It returns ErrNoResults when
// nothing matches.
func (a *Accessor[T]) List(ctx context.Context, q ListQuery[T]) ([]T, error) {
	conds := q.Where
	if q.SearchIn != nil && q.Search != "" {
		conds = append(conds[:len(conds):len(conds)], Contains(q.SearchIn, q.Search))
	}

	tx := a.query(ctx, conds).Order(clause.OrderByColumn{Column: clause.PrimaryColumn})
	for _, rel := range q.Preload {
		tx = tx.Preload(rel.name)
	}
	tx = page(tx, q.Limit, q.Offset)

	var rows []T
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoResults
	}
	return rows, nil
}

func page(tx *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	return tx
}

// Distinct returns the distinct values of one column in ascending order.
func Distinct[T, V any](ctx context.Context, a *Accessor[T], c Column[T, V]) ([]V, error) {
	var values []V
	err := a.query(ctx, nil).
		Distinct().
		Order(clause.OrderByColumn{Column: clause.Column{Name: c.name}}).
		Pluck(c.name, &values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}

// FetchOne returns the first row matching every condition, or nil.
func (a *Accessor[T]) FetchOne(ctx context.Context, conds ...Cond[T]) (*T, error) {
	var rows []T
	err := a.query(ctx, conds).
		Order(clause.OrderByColumn{Column: clause.PrimaryColumn}).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// FetchOneMap is FetchOne flattened to column name -> value.
func (a *Accessor[T]) FetchOneMap(ctx context.Context, conds ...Cond[T]) (map[string]any, error) {
	var rows []map[string]any
	err := a.query(ctx, conds).
		Order(clause.OrderByColumn{Column: clause.PrimaryColumn}).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Exists reports whether any row matches.
func (a *Accessor[T]) Exists(ctx context.Context, conds ...Cond[T]) (bool, error) {
	n, err := a.Count(ctx, conds...)
	return n > 0, err
}

// Count returns the number of matching rows.
func (a *Accessor[T]) Count(ctx context.Context, conds ...Cond[T]) (int64, error) {
	var n int64
	if err := a.query(ctx, conds).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// FetchGrouped returns every row matching cond, eager-loading rels.
func (a *Accessor[T]) FetchGrouped(ctx context.Context, cond Cond[T], rels ...Relation[T]) ([]T, error) {
	tx := a.query(ctx, []Cond[T]{cond}).Order(clause.OrderByColumn{Column: clause.PrimaryColumn})
	for _, rel := range rels {
		tx = tx.Preload(rel.name)
	}
	var rows []T
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Field reads target from the row whose unique column equals match. The
// boolean is false when no row matched.
func Field[T, V, W any](ctx context.Context, a *Accessor[T], unique Column[T, V], match V, target Column[T, W]) (W, bool, error) {
	var zero W
	var values []W
	err := a.query(ctx, []Cond[T]{Eq(unique, match)}).
		Limit(1).
		Pluck(target.name, &values).Error
	if err != nil {
		return zero, false, err
	}
	if len(values) == 0 {
		return zero, false, nil
	}
	return values[0], true, nil
}

// Create inserts obj. A failure that is not a constraint violation is
// retried once; constraint violations come back as ErrConflict or
// ErrMissingReference and a second failure as *WriteFaultError. Inside a
// transaction there is no retry since the first failure may have aborted it.
func (a *Accessor[T]) Create(ctx context.Context, obj *T) error {
	err := a.db.WithContext(ctx).Create(obj).Error
	if err == nil {
		return nil
	}
	// Constraint violations are deterministic; a second insert would fail
	// the same way.
	if classified := classify(err); classified != nil {
		return classified
	}
	if a.inTx {
		return &WriteFaultError{Table: a.table(), Err: err}
	}

	a.logger.WarnContext(ctx, "insert failed, retrying",
		slog.String("table", a.table()),
		slog.String("error", err.Error()),
	)
	err = a.db.WithContext(ctx).Create(obj).Error
	if err == nil {
		return nil
	}
	if classified := classify(err); classified != nil {
		return classified
	}
	return &WriteFaultError{Table: a.table(), Err: err}
}

// Update applies sets to rows matching where and returns how many rows
// changed. No match is not an error.
func (a *Accessor[T]) Update(ctx context.Context, where Cond[T], sets ...Assignment[T]) (int64, error) {
	if len(sets) == 0 {
		return 0, nil
	}
	values := make(map[string]any, len(sets))
	for _, s := range sets {
		values[s.name] = s.value
	}

	res := a.query(ctx, []Cond[T]{where}).Updates(values)
	if res.Error != nil {
		if classified := classify(res.Error); classified != nil {
			return 0, classified
		}
		return 0, &WriteFaultError{Table: a.table(), Err: res.Error}
	}
	return res.RowsAffected, nil
}

// Delete removes matching rows and returns how many were removed.
func (a *Accessor[T]) Delete(ctx context.Context, conds ...Cond[T]) (int64, error) {
	if len(conds) == 0 {
		return 0, errors.New("store: delete requires at least one condition")
	}
	tx := a.db.WithContext(ctx)
	for _, c := range conds {
		tx = tx.Where(c.expr)
	}
	res := tx.Delete(new(T))
	if res.Error != nil {
		return 0, &WriteFaultError{Table: a.table(), Err: res.Error}
	}
	return res.RowsAffected, nil
}
