package query

import (
	"strconv"
	"strings"
)

// SearchScopes はエンティティごとの検索スコープ定義。
// Allは全体検索の対象列、ByNameはスコープ名から対象列への対応を持つ。
// 列はSQL式（JOIN先の修飾列も可）で指定する。
type SearchScopes struct {
	All    []string
	ByName map[string][]string
}

// Columns はスコープ名に対応する検索対象列を返す。
// 未定義のスコープはエラーにせず全体検索（All）にフォールバックする。
func (s SearchScopes) Columns(scope string) []string {
	if cols, ok := s.ByName[scope]; ok {
		return cols
	}
	return s.All
}

// Builder はWHERE句とバインドパラメータを組み立てる。
// 検索語は必ずパラメータとしてバインドされ、述語文字列には混入しない。
type Builder struct {
	where []string
	args  []any
}

// NewBuilder は空のBuilderを生成する。
func NewBuilder() *Builder {
	return &Builder{}
}

// Bind は値をパラメータとして追加し、対応するプレースホルダ（$n）を返す。
func (b *Builder) Bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// Where は組み立て済みの条件式を追加する。複数条件はANDで結合される。
func (b *Builder) Where(clause string) {
	b.where = append(b.where, clause)
}

// Search は検索語とスコープからILIKE述語を追加する。
// 検索語が空の場合は何も追加しない。マッチは大文字小文字を区別しない
// 部分一致で、検索語中の % と _ はワイルドカードとしての意味を保つ
// （エスケープしない）。
func (b *Builder) Search(term, scope string, scopes SearchScopes) {
	if term == "" {
		return
	}

	cols := scopes.Columns(scope)
	if len(cols) == 0 {
		return
	}

	ph := b.Bind("%" + term + "%")
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = col + " ILIKE " + ph
	}

	if len(parts) == 1 {
		b.where = append(b.where, parts[0])
		return
	}
	b.where = append(b.where, "("+strings.Join(parts, " OR ")+")")
}

// WhereSQL はWHERE句を返す。条件がない場合は空文字列を返す。
func (b *Builder) WhereSQL() string {
	if len(b.where) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.where, " AND ")
}

// Args はバインド済みパラメータを追加順に返す。
func (b *Builder) Args() []any {
	return b.args
}
