package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/rosterman/internal/model"
	"github.com/hitoshi/rosterman/internal/query"
)

// programSearchScopes はプログラム一覧の検索スコープ定義。
// "unit"スコープはJOIN先ユニットのコードに対する検索。
var programSearchScopes = query.SearchScopes{
	All: []string{"p.code", "p.name", "u.code"},
	ByName: map[string][]string{
		"code": {"p.code"},
		"name": {"p.name"},
		"unit": {"u.code"},
	},
}

// programSortKeys はプログラム一覧のソートキー定義。
// "unit"はユニット未所属の行が不定順にならないよう空文字列へCOALESCEする。
var programSortKeys = query.SortKeys{
	"code": "p.code",
	"name": "p.name",
	"unit": "COALESCE(u.code, '')",
}

// programSelectColumns はプログラム一覧・取得で読む列。
const programSelectColumns = `p.id, p.unit_id, p.code, p.name,
	       COALESCE(u.code, '') AS unit_code, COALESCE(u.name, '') AS unit_name`

// programFromClause はユニットをLEFT JOINしたFROM句。
const programFromClause = `FROM programs p LEFT JOIN units u ON p.unit_id = u.id`

// PostgresProgramRepo はPostgreSQLを使用したプログラムリポジトリ。
type PostgresProgramRepo struct{}

// NewPostgresProgramRepo はPostgresProgramRepoを生成する。
func NewPostgresProgramRepo() *PostgresProgramRepo {
	return &PostgresProgramRepo{}
}

// scanProgram は1行分のプログラムを読み取る。
func scanProgram(scan func(dest ...any) error) (*model.Program, error) {
	p := &model.Program{}
	var unitID sql.NullInt64
	if err := scan(&p.ID, &unitID, &p.Code, &p.Name, &p.UnitCode, &p.UnitName); err != nil {
		return nil, err
	}
	if unitID.Valid {
		p.UnitID = &unitID.Int64
	}
	return p, nil
}

// List は検索・ソート・ページネーション付きでプログラム一覧を取得する。
func (r *PostgresProgramRepo) List(ctx context.Context, q DBTX, p query.ListParams) ([]model.Program, query.PageInfo, error) {
	b := query.NewBuilder()
	b.Search(p.Search, p.SearchBy, programSearchScopes)
	where := b.WhereSQL()

	var total int
	err := q.QueryRowContext(ctx,
		strings.Join([]string{"SELECT COUNT(*)", programFromClause, where}, " "),
		b.Args()...,
	).Scan(&total)
	if err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("プログラム件数の取得に失敗しました: %w", err)
	}

	order := query.OrderClause(p.SortBy, p.Order, programSortKeys)
	limit := b.Bind(p.PerPage)
	offset := b.Bind(p.Offset())

	rows, err := q.QueryContext(ctx,
		strings.Join([]string{
			"SELECT " + programSelectColumns,
			programFromClause,
			where,
			order,
			"LIMIT " + limit + " OFFSET " + offset,
		}, " "),
		b.Args()...,
	)
	if err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("プログラム一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var programs []model.Program
	for rows.Next() {
		p, err := scanProgram(rows.Scan)
		if err != nil {
			return nil, query.PageInfo{}, fmt.Errorf("プログラム行の読み取りに失敗しました: %w", err)
		}
		programs = append(programs, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("プログラム一覧の走査に失敗しました: %w", err)
	}

	return programs, query.NewPageInfo(p.Page, p.PerPage, total), nil
}

// ListByUnit は指定ユニットに属するプログラム一覧をコード順で返す。
func (r *PostgresProgramRepo) ListByUnit(ctx context.Context, q DBTX, unitID int64) ([]model.Program, error) {
	rows, err := q.QueryContext(ctx,
		strings.Join([]string{
			"SELECT " + programSelectColumns,
			programFromClause,
			"WHERE p.unit_id = $1 ORDER BY p.code ASC",
		}, " "),
		unitID,
	)
	if err != nil {
		return nil, fmt.Errorf("ユニット別プログラム一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var programs []model.Program
	for rows.Next() {
		p, err := scanProgram(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("プログラム行の読み取りに失敗しました: %w", err)
		}
		programs = append(programs, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ユニット別プログラム一覧の走査に失敗しました: %w", err)
	}

	return programs, nil
}

// FindByID は指定IDのプログラムを取得する。見つからない場合はnilを返す。
func (r *PostgresProgramRepo) FindByID(ctx context.Context, q DBTX, id int64) (*model.Program, error) {
	row := q.QueryRowContext(ctx,
		strings.Join([]string{"SELECT " + programSelectColumns, programFromClause, "WHERE p.id = $1"}, " "),
		id,
	)

	p, err := scanProgram(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プログラムの取得に失敗しました: %w", err)
	}

	return p, nil
}

// FindByCode はコードでプログラムを検索する（大文字小文字を区別しない）。
func (r *PostgresProgramRepo) FindByCode(ctx context.Context, q DBTX, code string, excludeID int64) (*model.Program, error) {
	row := q.QueryRowContext(ctx,
		strings.Join([]string{
			"SELECT " + programSelectColumns,
			programFromClause,
			"WHERE lower(p.code) = lower($1) AND p.id != $2",
		}, " "),
		strings.TrimSpace(code), excludeID,
	)

	p, err := scanProgram(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("コードによるプログラムの検索に失敗しました: %w", err)
	}

	return p, nil
}

// Insert はプログラムを作成し、採番済みの行を返す。
func (r *PostgresProgramRepo) Insert(ctx context.Context, q DBTX, unitID *int64, code, name string) (*model.Program, error) {
	p := &model.Program{}
	var scannedUnitID sql.NullInt64
	err := q.QueryRowContext(ctx,
		`INSERT INTO programs (unit_id, code, name) VALUES ($1, $2, $3)
		 RETURNING id, unit_id, code, name`,
		nullInt64(unitID), code, name,
	).Scan(&p.ID, &scannedUnitID, &p.Code, &p.Name)
	if err != nil {
		return nil, fmt.Errorf("プログラムの作成に失敗しました: %w", err)
	}
	if scannedUnitID.Valid {
		p.UnitID = &scannedUnitID.Int64
	}
	return p, nil
}

// Update は指定されたフィールドのみを更新し、更新後の行を返す。
// UnitIDのnull指定はユニットからの切り離しとして扱う。
func (r *PostgresProgramRepo) Update(ctx context.Context, q DBTX, id int64, upd model.ProgramUpdate) (*model.Program, error) {
	b := query.NewBuilder()
	var set []string
	if upd.UnitID.Set {
		if upd.UnitID.Null {
			set = append(set, "unit_id = NULL")
		} else {
			set = append(set, "unit_id = "+b.Bind(upd.UnitID.Value))
		}
	}
	if upd.Code.Present() {
		set = append(set, "code = "+b.Bind(upd.Code.Value))
	}
	if upd.Name.Present() {
		set = append(set, "name = "+b.Bind(upd.Name.Value))
	}
	if len(set) == 0 {
		return r.FindByID(ctx, q, id)
	}

	result, err := q.ExecContext(ctx,
		"UPDATE programs SET "+strings.Join(set, ", ")+" WHERE id = "+b.Bind(id),
		b.Args()...,
	)
	if err != nil {
		return nil, fmt.Errorf("プログラムの更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.FindByID(ctx, q, id)
}

// Delete は指定IDのプログラムを削除する。削除した場合trueを返す。
func (r *PostgresProgramRepo) Delete(ctx context.Context, q DBTX, id int64) (bool, error) {
	result, err := q.ExecContext(ctx,
		`DELETE FROM programs WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("プログラムの削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// nullInt64 はnil許容のint64ポインタをsql.NullInt64に変換する。
func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// compile-time interface check
var _ ProgramRepository = (*PostgresProgramRepo)(nil)
