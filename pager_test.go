package gokeyset

import (
	"database/sql/driver"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_Pager_WithMethods_And_SortDedup(t *testing.T) {
	p := (*Pager)(nil)
	p = p.WithLimit(5).
		Backward().
		WithSubstitutedSort(
			OrderBy{Column: "id", Direction: DirectionASC},
		).
		WithSort(
			OrderBy{Column: "id", Direction: DirectionDESC},
			OrderBy{Column: "created_at", Direction: DirectionASC},
		)

	require.True(t, p.IsBackward())
	require.False(t, p.IsAnchored())
	require.Equal(t, 5, p.GetLimit())
	require.Equal(t, 6, p.GetDatasetLimit())
	require.Equal(
		t,
		Orderings{
			{Column: "id", Direction: DirectionDESC},
			{Column: "created_at", Direction: DirectionASC},
		},
		p.GetSort(),
	)
	require.Equal(
		t,
		Orderings{
			{Column: "id", Direction: DirectionASC},
			{Column: "created_at", Direction: DirectionDESC},
		},
		p.GetEffectiveSort(),
	)
}

func Test_Pager_validate(t *testing.T) {
	idCursor := NewCursor(CursorElement{Column: "id", Value: 1})
	idASC := Orderings{{Column: "id", Direction: DirectionASC}}

	tests := []struct {
		name    string
		pager   *Pager
		wantErr bool
	}{
		{
			name:    "standard case, ok",
			pager:   &Pager{limit: 10, cursor: idCursor, sort: idASC},
			wantErr: false,
		},
		{
			name:    "backward standard case, ok",
			pager:   &Pager{backward: true, limit: 10, cursor: idCursor, sort: idASC},
			wantErr: false,
		},
		{
			name:    "zero limit is forbidden",
			pager:   &Pager{limit: 0, cursor: idCursor, sort: idASC},
			wantErr: true,
		},
		{
			name:    "negative limit is forbidden",
			pager:   &Pager{limit: -1, sort: idASC},
			wantErr: true,
		},
		{
			name: "sort list should contain the same elements as cursor",
			pager: &Pager{
				limit:  10,
				cursor: idCursor,
				sort:   Orderings{{Column: "name", Direction: DirectionASC}},
			},
			wantErr: true,
		},
		{
			name: "sort list should contain all elements from cursor",
			pager: &Pager{
				limit: 10,
				cursor: NewCursor(
					CursorElement{Column: "id", Value: 1},
					CursorElement{Column: "surname", Value: "lol"},
				),
				sort: Orderings{
					{Column: "id", Direction: DirectionASC},
					{Column: "name", Direction: DirectionASC},
				},
			},
			wantErr: true,
		},
		{
			name:    "nil pager is invalid",
			pager:   (*Pager)(nil),
			wantErr: true,
		},
		{
			name:    "pager with no sort is invalid",
			pager:   &Pager{limit: 10, cursor: idCursor},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if gotErr := tt.pager.validate(); (gotErr != nil) != tt.wantErr {
				t.Errorf("%s: got error = %v, want error = %v", tt.name, gotErr, tt.wantErr)
			}
		})
	}
}

func Test_Pager_Paginate(t *testing.T) {
	sqlMockFnList := []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
		newGORMMySQLMock,
		newGORMPostgresMock,
	}

	type tUser struct {
		ID   uint
		Name string
	}

	createdID := Orderings{
		{Column: "created", Direction: DirectionASC},
		{Column: "id", Direction: DirectionASC},
	}

	tests := []struct {
		name          string
		limit         int
		cursor        *Cursor
		orderings     Orderings
		backward      bool
		expectedQuery string
		expectedArgs  []driver.Value
	}{
		{
			name:          "first page overfetches by one",
			limit:         3,
			cursor:        nil,
			orderings:     Orderings{{Column: "id", Direction: DirectionASC}},
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] ORDER BY id ASC LIMIT 4$",
			expectedArgs:  nil,
		},
		{
			name:          "single column cursor",
			limit:         3,
			cursor:        NewCursor(CursorElement{Column: "id", Value: 5}),
			orderings:     Orderings{{Column: "id", Direction: DirectionASC}},
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] AND id > (?:\\$\\d|\\?) ORDER BY id ASC LIMIT 4$",
			expectedArgs:  []driver.Value{5},
		},
		{
			name:  "multiple cursor elements",
			limit: 2,
			cursor: NewCursor(
				CursorElement{Column: "created", Value: 2},
				CursorElement{Column: "id", Value: 2},
			),
			orderings:     createdID,
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] AND \\(created > (?:\\$\\d|\\?) OR \\(created = (?:\\$\\d|\\?) AND id > (?:\\$\\d|\\?)\\)\\) ORDER BY created ASC, id ASC LIMIT 3$",
			expectedArgs:  []driver.Value{2, 2, 2},
		},
		{
			name:          "DESC ordering",
			limit:         3,
			cursor:        NewCursor(CursorElement{Column: "id", Value: 5}),
			orderings:     Orderings{{Column: "id", Direction: DirectionDESC}},
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] AND id < (?:\\$\\d|\\?) ORDER BY id DESC LIMIT 4$",
			expectedArgs:  []driver.Value{5},
		},
		{
			name:  "backward reverses ordering and operators",
			limit: 2,
			cursor: NewCursor(
				CursorElement{Column: "created", Value: 3},
				CursorElement{Column: "id", Value: 3},
			),
			orderings:     createdID,
			backward:      true,
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] AND \\(created < (?:\\$\\d|\\?) OR \\(created = (?:\\$\\d|\\?) AND id < (?:\\$\\d|\\?)\\)\\) ORDER BY created DESC, id DESC LIMIT 3$",
			expectedArgs:  []driver.Value{3, 3, 3},
		},
		{
			name:          "backward without cursor reads the tail",
			limit:         2,
			cursor:        nil,
			orderings:     createdID,
			backward:      true,
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] ORDER BY created DESC, id DESC LIMIT 3$",
			expectedArgs:  nil,
		},
		{
			name:          "empty cursor",
			limit:         10,
			cursor:        NewCursor(),
			orderings:     Orderings{{Column: "id", Direction: DirectionASC}},
			expectedQuery: "^SELECT \\* FROM [`'\"]users[`'\"] WHERE name = [`'\"]lol[`'\"] ORDER BY id ASC LIMIT 11$",
			expectedArgs:  nil,
		},
	}

	for _, sqlMockFn := range sqlMockFnList {
		for _, tt := range tests {
			dialect, db, dbMock, err := sqlMockFn()
			t.Run(fmt.Sprintf("%s %s", dialect, tt.name), func(t *testing.T) {
				if err != nil {
					t.Fatalf("gorm open: %v", err)
				}

				expectation := dbMock.ExpectQuery(tt.expectedQuery)
				if len(tt.expectedArgs) > 0 {
					expectation = expectation.WithArgs(tt.expectedArgs...)
				}
				expectation.WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "John Doe"))

				p := NewPager().
					WithLimit(tt.limit).
					WithCursor(tt.cursor).
					WithSubstitutedSort(tt.orderings...)

				if tt.backward {
					p = p.Backward()
				}

				paged, err := p.Paginate(db.Select("*").Table("users").Where("name = 'lol'"))
				if err != nil {
					t.Fatalf("paginate: %v", err)
				}

				err = paged.Find(&[]tUser{}).Error
				if err != nil {
					t.Fatalf("find: %v", err)
				}

				assert.NoError(t, dbMock.ExpectationsWereMet())
			})
		}
	}
}

func Test_Pager_Paginate_Invalid(t *testing.T) {
	_, db, _, err := newGORMPostgresMock()
	require.NoError(t, err)

	_, err = NewPager().WithLimit(0).WithSort(OrderBy{Column: "id", Direction: DirectionASC}).Paginate(db)
	assert.Error(t, err)

	_, err = NewPager().WithLimit(2).Paginate(db)
	assert.Error(t, err, "no orderings")
}

func Test_Pager_ToSQL(t *testing.T) {
	p := NewPager().
		WithLimit(2).
		WithSort(
			OrderBy{Column: "created", Direction: DirectionDESC},
			OrderBy{Column: "id", Direction: DirectionDESC},
		)

	where, args, err := p.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "TRUE", where)
	assert.Empty(t, args)

	where, args, err = p.WithCursor(NewCursor(
		CursorElement{Column: "created", Value: int64(4)},
		CursorElement{Column: "id", Value: int64(9)},
	)).Backward().ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "((created > ?) OR (created = ? AND id > ?))", where)
	assert.Equal(t, []any{int64(4), int64(4), int64(9)}, args)
}
