package repository

import (
	"context"
	"fmt"
	"sync"
)

// referencesQuery はpublicスキーマの外部キー関係を引くクエリ。
// 被参照側（テーブル・列）をキーに、参照している側の列を列挙する。
const referencesQuery = `
SELECT kcu.table_name, kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON tc.constraint_name = ccu.constraint_name
 AND tc.table_schema = ccu.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY'
  AND tc.table_schema = 'public'
  AND ccu.table_name = $1
  AND ccu.column_name = $2
ORDER BY kcu.table_name, kcu.column_name`

// PostgresSchemaCatalog はinformation_schemaから外部キー関係を取得し
// キャッシュするスキーマカタログ。リクエストごとにスキーマを引き直す
// 代わりに、初回参照時の結果をプロセス内で保持する。
type PostgresSchemaCatalog struct {
	db DBTX

	mu    sync.Mutex
	cache map[string][]ReferencingColumn
}

// NewPostgresSchemaCatalog はPostgresSchemaCatalogを生成する。
func NewPostgresSchemaCatalog(db DBTX) *PostgresSchemaCatalog {
	return &PostgresSchemaCatalog{
		db:    db,
		cache: make(map[string][]ReferencingColumn),
	}
}

// ReferencesTo は指定テーブルの指定列を外部キーで参照している列の一覧を返す。
func (c *PostgresSchemaCatalog) ReferencesTo(ctx context.Context, table, column string) ([]ReferencingColumn, error) {
	key := table + "." + column

	c.mu.Lock()
	refs, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return refs, nil
	}

	rows, err := c.db.QueryContext(ctx, referencesQuery, table, column)
	if err != nil {
		return nil, fmt.Errorf("外部キー関係の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	refs = []ReferencingColumn{}
	for rows.Next() {
		var ref ReferencingColumn
		if err := rows.Scan(&ref.Table, &ref.Column); err != nil {
			return nil, fmt.Errorf("外部キー関係の読み取りに失敗しました: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("外部キー関係の走査に失敗しました: %w", err)
	}

	c.mu.Lock()
	c.cache[key] = refs
	c.mu.Unlock()

	return refs, nil
}

// Refresh はキャッシュを破棄し、次回参照時に再構築させる。
// マイグレーション適用後に呼ぶことで新しい外部キーを反映できる。
func (c *PostgresSchemaCatalog) Refresh() {
	c.mu.Lock()
	c.cache = make(map[string][]ReferencingColumn)
	c.mu.Unlock()
}

// compile-time interface check
var _ SchemaCatalog = (*PostgresSchemaCatalog)(nil)
