package query

import "testing"

var testSortKeys = SortKeys{
	"code": "code",
	"unit": "COALESCE(u.code, '')",
}

// TestOrderClause はソートキーのホワイトリスト解決を検証する。
func TestOrderClause(t *testing.T) {
	tests := []struct {
		name   string
		sortBy string
		order  string
		want   string
	}{
		{"ascending", "code", "asc", "ORDER BY code ASC"},
		{"descending", "code", "desc", "ORDER BY code DESC"},
		{"relation key coalesced", "unit", "asc", "ORDER BY COALESCE(u.code, '') ASC"},
		{"unknown key", "evil; DROP TABLE", "asc", ""},
		{"empty key", "", "asc", ""},
		{"unknown order treated as asc", "code", "descending", "ORDER BY code ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OrderClause(tt.sortBy, tt.order, testSortKeys); got != tt.want {
				t.Errorf("OrderClause(%q, %q) = %q, want %q", tt.sortBy, tt.order, got, tt.want)
			}
		})
	}
}
