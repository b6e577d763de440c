package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/rosterman/internal/model"
	"github.com/hitoshi/rosterman/internal/query"
)

// memberSearchScopes はメンバー一覧の検索スコープ定義。
// "name"スコープは姓・名の両方、"program"スコープはJOIN先プログラムの
// コード・名称に対する検索。
var memberSearchScopes = query.SearchScopes{
	All: []string{"m.id", "m.first_name", "m.last_name", "m.gender", "p.name", "p.code"},
	ByName: map[string][]string{
		"id":         {"m.id"},
		"first_name": {"m.first_name"},
		"last_name":  {"m.last_name"},
		"name":       {"m.first_name", "m.last_name"},
		"program":    {"p.code", "p.name"},
		"gender":     {"m.gender"},
	},
}

// memberSortKeys はメンバー一覧のソートキー定義。
var memberSortKeys = query.SortKeys{
	"id":         "m.id",
	"first_name": "m.first_name",
	"last_name":  "m.last_name",
	"year_level": "m.year_level",
	"gender":     "m.gender",
	"program":    "COALESCE(p.name, '')",
}

const memberSelectColumns = `m.id, m.first_name, m.last_name, m.program_id, m.year_level, m.gender, m.photo,
	       COALESCE(p.code, '') AS program_code, COALESCE(p.name, '') AS program_name`

const memberFromClause = `FROM members m LEFT JOIN programs p ON m.program_id = p.id`

// PostgresMemberRepo はPostgreSQLを使用したメンバーリポジトリ。
type PostgresMemberRepo struct{}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo() *PostgresMemberRepo {
	return &PostgresMemberRepo{}
}

// scanMember は1行分のメンバーを読み取る。
func scanMember(scan func(dest ...any) error) (*model.Member, error) {
	m := &model.Member{}
	var programID sql.NullInt64
	var photo sql.NullString
	if err := scan(&m.ID, &m.FirstName, &m.LastName, &programID, &m.YearLevel, &m.Gender, &photo,
		&m.ProgramCode, &m.ProgramName); err != nil {
		return nil, err
	}
	if programID.Valid {
		m.ProgramID = &programID.Int64
	}
	m.Photo = photo.String
	return m, nil
}

// List は検索・ソート・ページネーション付きでメンバー一覧を取得する。
func (r *PostgresMemberRepo) List(ctx context.Context, q DBTX, p query.ListParams) ([]model.Member, query.PageInfo, error) {
	b := query.NewBuilder()
	b.Search(p.Search, p.SearchBy, memberSearchScopes)
	where := b.WhereSQL()

	var total int
	err := q.QueryRowContext(ctx,
		strings.Join([]string{"SELECT COUNT(*)", memberFromClause, where}, " "),
		b.Args()...,
	).Scan(&total)
	if err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("メンバー件数の取得に失敗しました: %w", err)
	}

	order := query.OrderClause(p.SortBy, p.Order, memberSortKeys)
	limit := b.Bind(p.PerPage)
	offset := b.Bind(p.Offset())

	rows, err := q.QueryContext(ctx,
		strings.Join([]string{
			"SELECT " + memberSelectColumns,
			memberFromClause,
			where,
			order,
			"LIMIT " + limit + " OFFSET " + offset,
		}, " "),
		b.Args()...,
	)
	if err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, query.PageInfo{}, fmt.Errorf("メンバー行の読み取りに失敗しました: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, query.PageInfo{}, fmt.Errorf("メンバー一覧の走査に失敗しました: %w", err)
	}

	return members, query.NewPageInfo(p.Page, p.PerPage, total), nil
}

// FindByID は指定IDのメンバーを取得する。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindByID(ctx context.Context, q DBTX, id string) (*model.Member, error) {
	row := q.QueryRowContext(ctx,
		strings.Join([]string{"SELECT " + memberSelectColumns, memberFromClause, "WHERE m.id = $1"}, " "),
		id,
	)

	m, err := scanMember(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メンバーの取得に失敗しました: %w", err)
	}

	return m, nil
}

// Insert はメンバーを作成する。
func (r *PostgresMemberRepo) Insert(ctx context.Context, q DBTX, m *model.Member) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO members (id, first_name, last_name, program_id, year_level, gender, photo)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.FirstName, m.LastName, nullInt64(m.ProgramID), m.YearLevel, m.Gender, emptyAsNull(m.Photo),
	)
	if err != nil {
		return fmt.Errorf("メンバーの作成に失敗しました: %w", err)
	}
	return nil
}

// Update は指定されたフィールドのみを更新する。ID変更（rekey）は扱わない。
// ProgramID・Photoのnull指定はそれぞれ所属解除・写真削除として扱う。
func (r *PostgresMemberRepo) Update(ctx context.Context, q DBTX, id string, upd model.MemberUpdate) (bool, error) {
	b := query.NewBuilder()
	var set []string
	if upd.FirstName.Present() {
		set = append(set, "first_name = "+b.Bind(upd.FirstName.Value))
	}
	if upd.LastName.Present() {
		set = append(set, "last_name = "+b.Bind(upd.LastName.Value))
	}
	if upd.ProgramID.Set {
		if upd.ProgramID.Null {
			set = append(set, "program_id = NULL")
		} else {
			set = append(set, "program_id = "+b.Bind(upd.ProgramID.Value))
		}
	}
	if upd.YearLevel.Present() {
		set = append(set, "year_level = "+b.Bind(upd.YearLevel.Value))
	}
	if upd.Gender.Present() {
		set = append(set, "gender = "+b.Bind(upd.Gender.Value))
	}
	if upd.Photo.Set {
		if upd.Photo.Null {
			set = append(set, "photo = NULL")
		} else {
			set = append(set, "photo = "+b.Bind(upd.Photo.Value))
		}
	}
	if len(set) == 0 {
		m, err := r.FindByID(ctx, q, id)
		if err != nil {
			return false, err
		}
		return m != nil, nil
	}

	result, err := q.ExecContext(ctx,
		"UPDATE members SET "+strings.Join(set, ", ")+" WHERE id = "+b.Bind(id),
		b.Args()...,
	)
	if err != nil {
		return false, fmt.Errorf("メンバーの更新に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// Delete は指定IDのメンバーを削除する。削除した場合trueを返す。
func (r *PostgresMemberRepo) Delete(ctx context.Context, q DBTX, id string) (bool, error) {
	result, err := q.ExecContext(ctx,
		`DELETE FROM members WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("メンバーの削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// RewriteReferences はメンバーIDを参照する各列について、旧IDを新IDへ
// 書き換える。テーブル名・列名はスキーマカタログ由来の識別子のため、
// プレースホルダーではなくクオートして埋め込む。
func (r *PostgresMemberRepo) RewriteReferences(ctx context.Context, q DBTX, refs []ReferencingColumn, oldID, newID string) (int64, error) {
	var rewritten int64
	for _, ref := range refs {
		table := pq.QuoteIdentifier(ref.Table)
		column := pq.QuoteIdentifier(ref.Column)
		result, err := q.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = $2", table, column, column),
			newID, oldID,
		)
		if err != nil {
			return rewritten, fmt.Errorf("参照の書き換えに失敗しました (%s.%s): %w", ref.Table, ref.Column, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return rewritten, fmt.Errorf("書き換え行数の取得に失敗しました (%s.%s): %w", ref.Table, ref.Column, err)
		}
		rewritten += affected
	}
	return rewritten, nil
}

// emptyAsNull は空文字列をNULLとして格納するための変換。
func emptyAsNull(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

// compile-time interface check
var _ MemberRepository = (*PostgresMemberRepo)(nil)
