package query

// SortKeys はソートキー名から列式への対応を持つホワイトリスト。
// 関連エンティティの属性でソートするキーはCOALESCE式
// （例: COALESCE(p.code, ''))を登録し、関連を持たない行が
// NULL比較で不定順になるのを防ぐ。空文字列へのCOALESCEのため、
// 昇順では関連なしの行が先頭側に、降順では末尾側に並ぶ。
type SortKeys map[string]string

// OrderClause はソートキーと順序からORDER BY句を返す。
// キーが空または未定義の場合は空文字列を返し、結果の順序は
// ストレージ依存（呼び出し側は順序に依存してはならない）となる。
// orderは"desc"のときのみ降順、それ以外は昇順。
func OrderClause(sortBy, order string, keys SortKeys) string {
	col, ok := keys[sortBy]
	if !ok {
		return ""
	}

	direction := "ASC"
	if order == "desc" {
		direction = "DESC"
	}
	return "ORDER BY " + col + " " + direction
}
