package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/rosterman/internal/model"
	"github.com/hitoshi/rosterman/internal/query"
)

// unitSearchScopes はユニット一覧の検索スコープ定義。
var unitSearchScopes = query.SearchScopes{
	All: []string{"code", "name"},
	ByName: map[string][]string{
		"code": {"code"},
		"name": {"name"},
	},
}

// unitSortKeys はユニット一覧のソートキー定義。
var unitSortKeys = query.SortKeys{
	"code": "code",
	"name": "name",
}

// PostgresUnitRepo はPostgreSQLを使用したユニットリポジトリ。
type PostgresUnitRepo struct{}

// NewPostgresUnitRepo はPostgresUnitRepoを生成する。
func NewPostgresUnitRepo() *PostgresUnitRepo {
	return &PostgresUnitRepo{}
}

// List は検索・ソート・ページネーション付きでユニット一覧を取得する。
func (r *PostgresUnitRepo) List(ctx context.Context, q DBTX, p query.ListParams) ([]model.Unit, query.PageInfo, error) {
	b := query.NewBuilder()
	b.Search(p.Search, p.SearchBy, unitSearchScopes)
	where := b.WhereSQL()

	var total int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM units "+where,
		b.Args()...,
	).Scan(&total)
	if err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("ユニット件数の取得に失敗しました: %w", err)
	}

	order := query.OrderClause(p.SortBy, p.Order, unitSortKeys)
	limit := b.Bind(p.PerPage)
	offset := b.Bind(p.Offset())

	rows, err := q.QueryContext(ctx,
		strings.Join([]string{
			"SELECT id, code, name FROM units",
			where,
			order,
			"LIMIT " + limit + " OFFSET " + offset,
		}, " "),
		b.Args()...,
	)
	if err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("ユニット一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var units []model.Unit
	for rows.Next() {
		var u model.Unit
		if err := rows.Scan(&u.ID, &u.Code, &u.Name); err != nil {
			return nil, query.PageInfo{}, fmt.Errorf("ユニット行の読み取りに失敗しました: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("ユニット一覧の走査に失敗しました: %w", err)
	}

	return units, query.NewPageInfo(p.Page, p.PerPage, total), nil
}

// FindByID は指定IDのユニットを取得する。見つからない場合はnilを返す。
func (r *PostgresUnitRepo) FindByID(ctx context.Context, q DBTX, id int64) (*model.Unit, error) {
	u := &model.Unit{}
	err := q.QueryRowContext(ctx,
		`SELECT id, code, name FROM units WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Code, &u.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユニットの取得に失敗しました: %w", err)
	}

	return u, nil
}

// FindByCode はコードでユニットを検索する（大文字小文字を区別しない）。
func (r *PostgresUnitRepo) FindByCode(ctx context.Context, q DBTX, code string, excludeID int64) (*model.Unit, error) {
	u := &model.Unit{}
	err := q.QueryRowContext(ctx,
		`SELECT id, code, name FROM units WHERE lower(code) = lower($1) AND id != $2`,
		strings.TrimSpace(code), excludeID,
	).Scan(&u.ID, &u.Code, &u.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("コードによるユニットの検索に失敗しました: %w", err)
	}

	return u, nil
}

// Insert はユニットを作成し、採番済みの行を返す。
func (r *PostgresUnitRepo) Insert(ctx context.Context, q DBTX, code, name string) (*model.Unit, error) {
	u := &model.Unit{}
	err := q.QueryRowContext(ctx,
		`INSERT INTO units (code, name) VALUES ($1, $2) RETURNING id, code, name`,
		code, name,
	).Scan(&u.ID, &u.Code, &u.Name)
	if err != nil {
		return nil, fmt.Errorf("ユニットの作成に失敗しました: %w", err)
	}
	return u, nil
}

// Update は指定されたフィールドのみを更新し、更新後の行を返す。
func (r *PostgresUnitRepo) Update(ctx context.Context, q DBTX, id int64, upd model.UnitUpdate) (*model.Unit, error) {
	b := query.NewBuilder()
	var set []string
	if upd.Code.Present() {
		set = append(set, "code = "+b.Bind(upd.Code.Value))
	}
	if upd.Name.Present() {
		set = append(set, "name = "+b.Bind(upd.Name.Value))
	}
	if len(set) == 0 {
		return r.FindByID(ctx, q, id)
	}

	u := &model.Unit{}
	err := q.QueryRowContext(ctx,
		"UPDATE units SET "+strings.Join(set, ", ")+" WHERE id = "+b.Bind(id)+" RETURNING id, code, name",
		b.Args()...,
	).Scan(&u.ID, &u.Code, &u.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユニットの更新に失敗しました: %w", err)
	}

	return u, nil
}

// Delete は指定IDのユニットを削除する。削除した場合trueを返す。
func (r *PostgresUnitRepo) Delete(ctx context.Context, q DBTX, id int64) (bool, error) {
	result, err := q.ExecContext(ctx,
		`DELETE FROM units WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("ユニットの削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ UnitRepository = (*PostgresUnitRepo)(nil)
