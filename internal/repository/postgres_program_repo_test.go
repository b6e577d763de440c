package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hitoshi/rosterman/internal/model"
	"github.com/hitoshi/rosterman/internal/query"
)

// TestPostgresProgramRepo_List はユニットJOIN付きの一覧取得と
// ユニット未所属行のNULL列の扱いを検証する。
func TestPostgresProgramRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM programs p LEFT JOIN units u ON p\.unit_id = u\.id`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT p\.id, p\.unit_id, p\.code, p\.name,.*FROM programs p LEFT JOIN units u ON p\.unit_id = u\.id.*ORDER BY COALESCE\(u\.code, ''\) ASC.*LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "unit_id", "code", "name", "unit_code", "unit_name"}).
			AddRow(1, nil, "ORPH", "Orphan Program", "", "").
			AddRow(2, int64(5), "BSCE", "BS Computer Engineering", "ENG", "Engineering"))

	repo := NewPostgresProgramRepo()
	programs, page, err := repo.List(context.Background(), db, query.ListParams{
		Page: 1, PerPage: 10, SortBy: "unit", Order: "asc",
	})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}

	if len(programs) != 2 {
		t.Fatalf("len(programs) = %d, want 2", len(programs))
	}
	if programs[0].UnitID != nil {
		t.Errorf("programs[0].UnitID = %v, want nil", programs[0].UnitID)
	}
	if programs[0].UnitCode != "" {
		t.Errorf("programs[0].UnitCode = %q, want empty", programs[0].UnitCode)
	}
	if programs[1].UnitID == nil || *programs[1].UnitID != 5 {
		t.Errorf("programs[1].UnitID = %v, want 5", programs[1].UnitID)
	}
	if page.Total != 2 {
		t.Errorf("page.Total = %d, want 2", page.Total)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestPostgresProgramRepo_ListByUnit はユニット別一覧のコード順取得を検証する。
func TestPostgresProgramRepo_ListByUnit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`WHERE p\.unit_id = \$1 ORDER BY p\.code ASC`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "unit_id", "code", "name", "unit_code", "unit_name"}).
			AddRow(2, int64(5), "BSCE", "BS Computer Engineering", "ENG", "Engineering"))

	repo := NewPostgresProgramRepo()
	programs, err := repo.ListByUnit(context.Background(), db, 5)
	if err != nil {
		t.Fatalf("ListByUnit error: %v", err)
	}
	if len(programs) != 1 || programs[0].Code != "BSCE" {
		t.Errorf("programs = %+v", programs)
	}
}

// TestPostgresProgramRepo_Update_UnitIDNull はunit_idのnull指定が
// NULL代入（ユニットからの切り離し）になることを検証する。
func TestPostgresProgramRepo_Update_UnitIDNull(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE programs SET unit_id = NULL WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`WHERE p\.id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "unit_id", "code", "name", "unit_code", "unit_name"}).
			AddRow(2, nil, "BSCE", "BS Computer Engineering", "", ""))

	repo := NewPostgresProgramRepo()
	p, err := repo.Update(context.Background(), db, 2, model.ProgramUpdate{
		UnitID: model.NullOptional[int64](),
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if p == nil || p.UnitID != nil {
		t.Errorf("p = %+v, want detached program", p)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
