// Package crud provides the generic repository and handlers shared by the
// resource features.
package crud

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"natours/internal/platform/apifeatures"
	"natours/internal/platform/apperr"
	"natours/internal/platform/db"
)

// Messages returned for generic failures.
const (
	MsgNotFound  = "No document found with that ID"
	MsgDuplicate = "Duplicate field value. Please use another value!"
)

// Filter narrows a query, e.g. to the reviews of one tour.
type Filter = func(*gorm.DB) *gorm.DB

type preload struct {
	assoc string
	args  []any
}

type options struct {
	scopes   []Filter
	preloads []preload
	notFound string
}

// Option configures a Repository.
type Option func(*options)

// WithScope adds a filter applied to every query of the repository,
// e.g. hiding secret tours or inactive users.
func WithScope(f Filter) Option {
	return func(o *options) { o.scopes = append(o.scopes, f) }
}

// WithPreload loads an association on Get.
func WithPreload(assoc string, args ...any) Option {
	return func(o *options) { o.preloads = append(o.preloads, preload{assoc: assoc, args: args}) }
}

// WithNotFoundMessage replaces the generic not found message.
func WithNotFoundMessage(msg string) Option {
	return func(o *options) { o.notFound = msg }
}

// Repository is a gorm backed store for one entity type.
type Repository[T any] struct {
	db      *gorm.DB
	columns apifeatures.Columns
	opts    options
}

// NewRepository creates a Repository for T.
func NewRepository[T any](gdb *gorm.DB, columns apifeatures.Columns, opts ...Option) *Repository[T] {
	o := options{notFound: MsgNotFound}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[T]{db: gdb, columns: columns, opts: o}
}

// Query returns a context bound query on T with the repository scopes applied.
func (r *Repository[T]) Query(ctx context.Context) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(new(T))
	for _, s := range r.opts.scopes {
		tx = s(tx)
	}
	return tx
}

// Columns returns the field to column map of the resource.
func (r *Repository[T]) Columns() apifeatures.Columns { return r.columns }

// List runs the directives against T, narrowed by filters.
func (r *Repository[T]) List(ctx context.Context, d apifeatures.Directives, filters ...Filter) ([]T, error) {
	tx := r.Query(ctx)
	for _, f := range filters {
		tx = f(tx)
	}
	var out []T
	if err := d.Apply(tx, r.columns).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the record with id and its preloaded associations.
func (r *Repository[T]) Get(ctx context.Context, id uint) (*T, error) {
	tx := r.Query(ctx)
	for _, p := range r.opts.preloads {
		tx = tx.Preload(p.assoc, p.args...)
	}
	return r.first(tx.Where("id = ?", id))
}

// FindOne returns the first record matching the where clause.
func (r *Repository[T]) FindOne(ctx context.Context, query any, args ...any) (*T, error) {
	tx := r.Query(ctx)
	for _, p := range r.opts.preloads {
		tx = tx.Preload(p.assoc, p.args...)
	}
	return r.first(tx.Where(query, args...))
}

func (r *Repository[T]) first(tx *gorm.DB) (*T, error) {
	var v T
	if err := tx.First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, r.opts.notFound, err)
		}
		return nil, err
	}
	return &v, nil
}

// Create inserts v.
func (r *Repository[T]) Create(ctx context.Context, v *T) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return WriteError(err)
	}
	return nil
}

// Update applies the column values in fields to the record with id, bumps
// its revision and returns the updated record.
func (r *Repository[T]) Update(ctx context.Context, id uint, fields map[string]any) (*T, error) {
	values := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	values["revision"] = gorm.Expr("revision + ?", 1)

	res := r.Query(ctx).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return nil, WriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.ErrNotFound, r.opts.notFound)
	}
	return r.Get(ctx, id)
}

// Delete removes the record with id.
func (r *Repository[T]) Delete(ctx context.Context, id uint) error {
	res := r.Query(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.ErrNotFound, r.opts.notFound)
	}
	return nil
}

// WriteError maps constraint violations to operational errors.
func WriteError(err error) error {
	if db.IsDuplicateKey(err) {
		return apperr.Wrap(apperr.ErrDuplicateKey, MsgDuplicate, err)
	}
	return fmt.Errorf("write failed: %w", err)
}
