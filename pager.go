package gokeyset

import (
	"database/sql/driver"
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Pager builds keyset (seek) queries. It never uses OFFSET: the page start is
// defined by the values of the anchor row, so rows inserted or deleted
// elsewhere in the dataset do not shift the page.
//
// The dataset limit is always the page size plus one. The extra row is never
// returned to the caller, it only proves that more rows exist.
type Pager struct {
	backward bool
	limit    int
	cursor   *Cursor
	sort     Orderings
}

func NewPager() *Pager {
	return new(Pager)
}

// Backward makes the pager return the rows right before the cursor
// ("last N before X") instead of the rows right after it.
func (p *Pager) Backward() *Pager {
	if p == nil {
		p = new(Pager)
	}

	p.backward = true

	return p
}

// WithLimit sets the page size. Bounds are checked by Paginate.
func (p *Pager) WithLimit(limit int) *Pager {
	if p == nil {
		p = new(Pager)
	}

	p.limit = limit

	return p
}

// WithCursor sets the anchor position. A nil cursor starts from the edge of
// the dataset.
func (p *Pager) WithCursor(cursor *Cursor) *Pager {
	if p == nil {
		p = new(Pager)
	}

	p.cursor = cursor

	return p
}

// WithSubstitutedSort resets previous orderings and applies the provided ones.
func (p *Pager) WithSubstitutedSort(orderBy ...OrderBy) *Pager {
	if p == nil {
		p = new(Pager)
	}

	p.sort = nil

	return p.WithSort(orderBy...)
}

// WithSort appends sort orderings without overwriting existing ones.
// Order is preserved as if calling:
//
//	OrderBy(o1).ThenBy(o2).ThenBy(o3)...
func (p *Pager) WithSort(orderBy ...OrderBy) *Pager {
	if p == nil {
		p = new(Pager)
	}

	for _, o := range orderBy {
		idx := slices.IndexFunc(p.sort, func(processed OrderBy) bool {
			return processed.Column == o.Column
		})

		// Remove previous occurrence (avoid duplication).
		if idx != -1 {
			p.sort = slices.Delete(p.sort, idx, idx+1)
		}

		p.sort = append(p.sort, o)
	}

	return p
}

// Paginate applies the seek predicate, the effective ordering and the
// overfetch limit to the dataset:
//
//	WHERE <base> AND ((k1 > v1) OR (k1 = v1 AND k2 > v2) ...)
//	ORDER BY k1, k2 ...
//	LIMIT size + 1
//
// For backward pagers every direction is flipped first, so "the last N rows
// before X" is read as "the first N rows after X in reversed order".
func (p *Pager) Paginate(db *gorm.DB) (*gorm.DB, error) {
	if p == nil {
		p = new(Pager)
	}

	err := p.validate()
	if err != nil {
		return nil, errors.Wrap(err, "cannot paginate")
	}

	sort := p.GetEffectiveSort()
	if !p.cursor.IsEmpty() {
		dnf := seekDNF(sort, p.cursor.Values())
		if err = dnf.matches(sort); err != nil {
			return nil, errors.Wrap(err, "cannot build seek predicate")
		}

		exp := dnf.toGORMExpression()
		if exp != nil {
			db = db.Clauses(exp)
		}
	}

	db = sort.Apply(db)

	return db.Limit(p.GetDatasetLimit()), nil
}

// GetSort returns orderings as declared by the caller.
func (p *Pager) GetSort() Orderings {
	if p == nil {
		return nil
	}

	return p.sort
}

// GetEffectiveSort returns orderings that will be applied to the dataset:
// the declared ones, or the reversed ones for backward pagers.
func (p *Pager) GetEffectiveSort() Orderings {
	if p == nil {
		return nil
	}

	if p.backward {
		return p.sort.Reverse()
	}

	return p.sort
}

// IsBackward returns true if the pager reads rows before the cursor.
func (p *Pager) IsBackward() bool {
	if p == nil {
		return false
	}

	return p.backward
}

// IsAnchored returns true if the pager starts from a cursor rather than from
// the edge of the dataset.
func (p *Pager) IsAnchored() bool {
	return !p.GetCursor().IsEmpty()
}

// GetLimit returns the page size as it is stored in Pager.
func (p *Pager) GetLimit() int {
	if p == nil {
		return 0
	}

	return p.limit
}

// GetCursor returns the cursor stored in Pager as-is.
func (p *Pager) GetCursor() *Cursor {
	if p == nil {
		return nil
	}

	return p.cursor
}

// GetDatasetLimit returns the number of rows requested from the dataset,
// GetLimit() + 1.
func (p *Pager) GetDatasetLimit() int {
	return p.GetLimit() + 1
}

// ToSQL renders the seek predicate for raw SQL queries. Returns "TRUE" when
// the pager has no cursor.
//
// Usage:
//
//	where, args, err := pager.ToSQL()
//	query := fmt.Sprintf("SELECT * FROM t WHERE %s ORDER BY %s LIMIT %d",
//		where, pager.GetEffectiveSort().ToSQL(), pager.GetDatasetLimit())
func (p *Pager) ToSQL() (string, []any, error) {
	if err := p.validate(); err != nil {
		return "", nil, err
	}

	if !p.IsAnchored() {
		return "TRUE", nil, nil
	}

	sort := p.GetEffectiveSort()
	dnf := seekDNF(sort, p.cursor.Values())
	if err := dnf.matches(sort); err != nil {
		return "", nil, errors.Wrap(err, "cannot build seek predicate")
	}

	sql, values := dnf.toSQLClause()

	return sql, lo.Map(values, func(v driver.Value, _ int) any { return v }), nil
}

func (p *Pager) validate() error {
	if p == nil {
		return errors.New("pager is nil")
	}

	if p.limit <= 0 {
		return errors.Errorf("page size must be positive, got %d", p.limit)
	}

	err := p.sort.validate()
	if err != nil {
		return err
	}

	return p.cursor.validate(p.sort)
}
