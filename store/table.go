// Package store is the query interface every resource goes through. A Table
// scopes each statement to the calling user and only lets whitelisted
// columns reach filters, ordering and search.
package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"careerhub-backend/errors"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Row is the pointer constraint for owned models (see models.Base).
type Row[T any] interface {
	*T
	SetOwner(uint)
	SetID(uint)
}

// Spec whitelists the columns a client may touch through a Query.
type Spec struct {
	Filters []string
	// Bools are filterable boolean columns. Their values parse as booleans
	// so drivers that store 1/0 still match true/false.
	Bools        []string
	Sorts        []string
	Search       []string
	DefaultOrder string
}

// Query is a parsed list request.
type Query struct {
	Filters map[string]string
	Search  string
	Order   string
	Desc    bool
	Limit   int
	Offset  int
}

// ParseQuery reads order=<col>.<asc|desc>, limit, offset, q and treats every
// other key as an equality filter.
func ParseQuery(values url.Values) (Query, error) {
	q := Query{Filters: map[string]string{}, Limit: DefaultLimit}
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		v := vals[0]
		switch key {
		case "order":
			col, dir, _ := strings.Cut(v, ".")
			q.Order = col
			switch dir {
			case "", "asc":
			case "desc":
				q.Desc = true
			default:
				return q, errors.Invalidf("order direction %q (want asc or desc)", dir)
			}
		case "limit":
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return q, errors.Invalidf("limit must be a positive integer")
			}
			if n > MaxLimit {
				n = MaxLimit
			}
			q.Limit = n
		case "offset":
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return q, errors.Invalidf("offset must be a non-negative integer")
			}
			q.Offset = n
		case "q":
			q.Search = strings.TrimSpace(v)
		default:
			q.Filters[key] = v
		}
	}
	return q, nil
}

// Table is the owner-scoped query builder for one model.
type Table[T any, P Row[T]] struct {
	db   *gorm.DB
	spec Spec
}

func NewTable[T any, P Row[T]](db *gorm.DB, spec Spec) *Table[T, P] {
	if spec.DefaultOrder == "" {
		spec.DefaultOrder = "id desc"
	}
	return &Table[T, P]{db: db, spec: spec}
}

func (t *Table[T, P]) owned(ctx context.Context, owner uint) *gorm.DB {
	return t.db.WithContext(ctx).Model(new(T)).Where("user_id = ?", owner)
}

func contains(cols []string, c string) bool {
	for _, col := range cols {
		if col == c {
			return true
		}
	}
	return false
}

func (t *Table[T, P]) filtered(ctx context.Context, owner uint, q Query) (*gorm.DB, error) {
	tx := t.owned(ctx, owner)
	for col, val := range q.Filters {
		var value interface{} = val
		switch {
		case contains(t.spec.Bools, col):
			b, err := strconv.ParseBool(val)
			if err != nil {
				return nil, errors.Invalidf("filter %q takes true or false, got %q", col, val)
			}
			value = b
		case !contains(t.spec.Filters, col):
			filterable := append(append([]string{}, t.spec.Filters...), t.spec.Bools...)
			return nil, errors.WithHintf(errors.Invalidf("cannot filter on %q", col),
				"filterable columns: %s", strings.Join(filterable, ", "))
		case val == "null":
			value = nil
		}
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: col}, Value: value})
	}
	if q.Search != "" && len(t.spec.Search) > 0 {
		conds := make([]string, 0, len(t.spec.Search))
		args := make([]interface{}, 0, len(t.spec.Search))
		pattern := "%" + strings.ToLower(q.Search) + "%"
		for _, col := range t.spec.Search {
			conds = append(conds, fmt.Sprintf("LOWER(%s) LIKE ?", col))
			args = append(args, pattern)
		}
		tx = tx.Where(strings.Join(conds, " OR "), args...)
	}
	return tx, nil
}

// List returns one page of the owner's rows and the total matching count.
func (t *Table[T, P]) List(ctx context.Context, owner uint, q Query) ([]T, int64, error) {
	tx, err := t.filtered(ctx, owner, q)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count rows")
	}

	if q.Order != "" {
		if !contains(t.spec.Sorts, q.Order) {
			return nil, 0, errors.Invalidf("cannot order by %q", q.Order)
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.Order}, Desc: q.Desc})
	} else {
		tx = tx.Order(t.spec.DefaultOrder)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows := make([]T, 0)
	if err := tx.Limit(limit).Offset(q.Offset).Find(&rows).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list rows")
	}
	return rows, total, nil
}

// All returns every row the owner has, unpaged. Used for derived statistics.
func (t *Table[T, P]) All(ctx context.Context, owner uint) ([]T, error) {
	rows := make([]T, 0)
	if err := t.owned(ctx, owner).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "load rows")
	}
	return rows, nil
}

// Count returns how many rows the owner has.
func (t *Table[T, P]) Count(ctx context.Context, owner uint) (int64, error) {
	var n int64
	if err := t.owned(ctx, owner).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "count rows")
	}
	return n, nil
}

// Get loads one row. Rows of other users are reported as not found.
func (t *Table[T, P]) Get(ctx context.Context, owner, id uint) (P, error) {
	row := P(new(T))
	err := t.db.WithContext(ctx).Where("user_id = ?", owner).First(row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundf("row %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get row %d", id)
	}
	return row, nil
}

// Create inserts row for owner. Any client-supplied id is discarded.
func (t *Table[T, P]) Create(ctx context.Context, owner uint, row P) error {
	row.SetOwner(owner)
	row.SetID(0)
	return translate(t.db.WithContext(ctx).Create(row).Error, "create row")
}

// Save writes a row previously loaded with Get.
func (t *Table[T, P]) Save(ctx context.Context, owner uint, row P) error {
	row.SetOwner(owner)
	return translate(t.db.WithContext(ctx).Save(row).Error, "save row")
}

// Delete removes one row of the owner.
func (t *Table[T, P]) Delete(ctx context.Context, owner, id uint) error {
	res := t.db.WithContext(ctx).Where("user_id = ?", owner).Delete(new(T), id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete row %d", id)
	}
	if res.RowsAffected == 0 {
		return errors.NotFoundf("row %d", id)
	}
	return nil
}

func translate(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrap(errors.ErrConflict, msg)
	default:
		return errors.Wrap(err, msg)
	}
}
