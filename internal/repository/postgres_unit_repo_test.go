package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hitoshi/rosterman/internal/model"
	"github.com/hitoshi/rosterman/internal/query"
)

// TestPostgresUnitRepo_List は件数カウントとウィンドウ取得の2クエリ発行を検証する。
func TestPostgresUnitRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM units`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(`SELECT id, code, name FROM units.*LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name"}).
			AddRow(1, "ENG", "Engineering").
			AddRow(2, "SCI", "Sciences"))

	repo := NewPostgresUnitRepo()
	units, page, err := repo.List(context.Background(), db, query.ListParams{Page: 2, PerPage: 10})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}

	if len(units) != 2 {
		t.Errorf("len(units) = %d, want 2", len(units))
	}
	if units[0].Code != "ENG" {
		t.Errorf("units[0].Code = %q, want ENG", units[0].Code)
	}
	if page.Total != 25 || page.TotalPages != 3 || !page.HasNext || !page.HasPrev {
		t.Errorf("page = %+v", page)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestPostgresUnitRepo_List_Search は検索語が同一パラメータで両クエリにバインドされることを検証する。
func TestPostgresUnitRepo_List_Search(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM units WHERE \(code ILIKE \$1 OR name ILIKE \$1\)`).
		WithArgs("%eng%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, code, name FROM units WHERE \(code ILIKE \$1 OR name ILIKE \$1\).*LIMIT \$2 OFFSET \$3`).
		WithArgs("%eng%", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name"}).
			AddRow(1, "ENG", "Engineering"))

	repo := NewPostgresUnitRepo()
	units, _, err := repo.List(context.Background(), db, query.ListParams{
		Page: 1, PerPage: 10, Search: "eng", SearchBy: "all",
	})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(units) != 1 {
		t.Errorf("len(units) = %d, want 1", len(units))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestPostgresUnitRepo_FindByID_NotFound は未検出時にnil, nilが返ることを検証する。
func TestPostgresUnitRepo_FindByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, code, name FROM units WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name"}))

	repo := NewPostgresUnitRepo()
	u, err := repo.FindByID(context.Background(), db, 99)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if u != nil {
		t.Errorf("u = %+v, want nil", u)
	}
}

// TestPostgresUnitRepo_Update_NoFields はフィールド未指定の更新が現在行の取得になることを検証する。
func TestPostgresUnitRepo_Update_NoFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, code, name FROM units WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name"}).AddRow(1, "ENG", "Engineering"))

	repo := NewPostgresUnitRepo()
	u, err := repo.Update(context.Background(), db, 1, model.UnitUpdate{})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if u == nil || u.Code != "ENG" {
		t.Errorf("u = %+v, want current row", u)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestPostgresUnitRepo_Update_PartialSet は指定フィールドのみのSET句生成を検証する。
func TestPostgresUnitRepo_Update_PartialSet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE units SET name = \$1 WHERE id = \$2 RETURNING id, code, name`).
		WithArgs("Renamed", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name"}).AddRow(1, "ENG", "Renamed"))

	repo := NewPostgresUnitRepo()
	u, err := repo.Update(context.Background(), db, 1, model.UnitUpdate{
		Name: model.NewOptional("Renamed"),
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if u == nil || u.Name != "Renamed" {
		t.Errorf("u = %+v", u)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestPostgresUnitRepo_Delete はRowsAffectedによる存在判定を検証する。
func TestPostgresUnitRepo_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM units WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM units WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPostgresUnitRepo()

	deleted, err := repo.Delete(context.Background(), db, 1)
	if err != nil || !deleted {
		t.Errorf("Delete(1) = (%v, %v), want (true, nil)", deleted, err)
	}

	deleted, err = repo.Delete(context.Background(), db, 2)
	if err != nil || deleted {
		t.Errorf("Delete(2) = (%v, %v), want (false, nil)", deleted, err)
	}
}
