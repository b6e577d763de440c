package query

import "testing"

// TestParseListParams_Defaults は未指定パラメータがデフォルト値になることを検証する。
func TestParseListParams_Defaults(t *testing.T) {
	p := ParseListParams(RawListParams{})

	if p.Page != 1 {
		t.Errorf("Page = %d, want 1", p.Page)
	}
	if p.PerPage != 10 {
		t.Errorf("PerPage = %d, want 10", p.PerPage)
	}
	if p.Order != "asc" {
		t.Errorf("Order = %q, want %q", p.Order, "asc")
	}
	if p.SearchBy != "all" {
		t.Errorf("SearchBy = %q, want %q", p.SearchBy, "all")
	}
}

// TestParseListParams_NonNumeric は数値でないpage・per_pageがデフォルト値になることを検証する。
func TestParseListParams_NonNumeric(t *testing.T) {
	tests := []struct {
		name        string
		page        string
		perPage     string
		wantPage    int
		wantPerPage int
	}{
		{"both garbage", "abc", "xyz", 1, 10},
		{"empty strings", "", "", 1, 10},
		{"float page", "1.5", "20", 1, 20},
		{"mixed", "3", "ten", 3, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseListParams(RawListParams{Page: tt.page, PerPage: tt.perPage})
			if p.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", p.Page, tt.wantPage)
			}
			if p.PerPage != tt.wantPerPage {
				t.Errorf("PerPage = %d, want %d", p.PerPage, tt.wantPerPage)
			}
		})
	}
}

// TestParseListParams_Clamping は範囲外の数値がクランプされることを検証する。
func TestParseListParams_Clamping(t *testing.T) {
	tests := []struct {
		name        string
		page        string
		perPage     string
		wantPage    int
		wantPerPage int
	}{
		{"zero page", "0", "10", 1, 10},
		{"negative page", "-5", "10", 1, 10},
		{"zero per_page", "1", "0", 1, 1},
		{"negative per_page", "1", "-1", 1, 1},
		{"per_page over max", "1", "500", 1, 100},
		{"per_page at max", "1", "100", 1, 100},
		{"large page allowed", "9999", "10", 9999, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseListParams(RawListParams{Page: tt.page, PerPage: tt.perPage})
			if p.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", p.Page, tt.wantPage)
			}
			if p.PerPage != tt.wantPerPage {
				t.Errorf("PerPage = %d, want %d", p.PerPage, tt.wantPerPage)
			}
		})
	}
}

// TestParseListParams_Order はorderが"desc"以外すべて"asc"になることを検証する。
func TestParseListParams_Order(t *testing.T) {
	tests := []struct {
		order string
		want  string
	}{
		{"desc", "desc"},
		{"DESC", "desc"},
		{" desc ", "desc"},
		{"asc", "asc"},
		{"descending", "asc"},
		{"", "asc"},
		{"random", "asc"},
	}

	for _, tt := range tests {
		p := ParseListParams(RawListParams{Order: tt.order})
		if p.Order != tt.want {
			t.Errorf("ParseListParams(order=%q).Order = %q, want %q", tt.order, p.Order, tt.want)
		}
	}
}

// TestParseListParams_SearchBy はsearch_byが小文字化され、空の場合"all"になることを検証する。
func TestParseListParams_SearchBy(t *testing.T) {
	p := ParseListParams(RawListParams{SearchBy: " Name "})
	if p.SearchBy != "name" {
		t.Errorf("SearchBy = %q, want %q", p.SearchBy, "name")
	}

	p = ParseListParams(RawListParams{SearchBy: "  "})
	if p.SearchBy != "all" {
		t.Errorf("SearchBy = %q, want %q", p.SearchBy, "all")
	}
}

// TestOffset はLIMIT/OFFSETウィンドウの開始位置の計算を検証する。
func TestOffset(t *testing.T) {
	tests := []struct {
		page    int
		perPage int
		want    int
	}{
		{1, 10, 0},
		{2, 10, 10},
		{3, 25, 50},
		{100, 100, 9900},
	}

	for _, tt := range tests {
		p := ListParams{Page: tt.page, PerPage: tt.perPage}
		if got := p.Offset(); got != tt.want {
			t.Errorf("Offset(page=%d, perPage=%d) = %d, want %d", tt.page, tt.perPage, got, tt.want)
		}
	}
}
