// Package query は一覧取得の汎用エンジン（検索述語・ソート・ページネーション）を提供する。
// ルーティング層から渡される未検証のクエリパラメータの正規化もこのパッケージが担う。
package query

import (
	"strconv"
	"strings"
)

const (
	// DefaultPage はページ番号のデフォルト値。
	DefaultPage = 1
	// DefaultPerPage は1ページあたりの件数のデフォルト値。
	DefaultPerPage = 10
	// MaxPerPage は1ページあたりの件数の上限。
	MaxPerPage = 100
)

// RawListParams はルーティング層から渡される生のクエリパラメータ。
// すべて未検証の文字列として受け取り、正規化はParseListParamsが行う。
type RawListParams struct {
	Page     string
	PerPage  string
	SortBy   string
	Order    string
	Search   string
	SearchBy string
}

// ListParams は正規化済みの一覧取得パラメータ。
type ListParams struct {
	Page     int
	PerPage  int
	SortBy   string
	Order    string
	Search   string
	SearchBy string
}

// ParseListParams は生パラメータを正規化する。エラーは返さない。
// page・per_pageは数値でなければデフォルト値（1・10）になり、
// 数値の場合は page >= 1、1 <= per_page <= 100 にクランプされる。
// orderは"desc"以外すべて"asc"として扱う。
func ParseListParams(raw RawListParams) ListParams {
	p := ListParams{
		Page:     parsePage(raw.Page),
		PerPage:  parsePerPage(raw.PerPage),
		SortBy:   strings.TrimSpace(raw.SortBy),
		Order:    "asc",
		Search:   strings.TrimSpace(raw.Search),
		SearchBy: strings.ToLower(strings.TrimSpace(raw.SearchBy)),
	}

	if strings.ToLower(strings.TrimSpace(raw.Order)) == "desc" {
		p.Order = "desc"
	}
	if p.SearchBy == "" {
		p.SearchBy = "all"
	}

	return p
}

// Offset はLIMIT/OFFSETウィンドウの開始位置を返す。
// 上限はなく、総ページ数を超えるページは空の結果になる。
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// parsePage はページ番号文字列を正規化する。
func parsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultPage
	}
	if n < 1 {
		return 1
	}
	return n
}

// parsePerPage は1ページあたりの件数文字列を正規化する。
func parsePerPage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultPerPage
	}
	if n < 1 {
		return 1
	}
	if n > MaxPerPage {
		return MaxPerPage
	}
	return n
}
