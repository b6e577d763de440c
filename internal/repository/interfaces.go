// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/rosterman/internal/model"
	"github.com/hitoshi/rosterman/internal/query"
)

// DBTX はクエリ実行セッションのインターフェース。
// *sql.DBと*sql.Txの両方が満たす。すべてのリポジトリ操作は
// セッションハンドルを明示的に受け取り、トランザクション境界の
// 管理は呼び出し側（サービス層）が行う。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// UnitRepository はユニットデータの永続化インターフェース。
type UnitRepository interface {
	// List は検索・ソート・ページネーション付きでユニット一覧を取得する。
	// 件数カウントとウィンドウ取得の2クエリを同一述語で発行する。
	List(ctx context.Context, q DBTX, p query.ListParams) ([]model.Unit, query.PageInfo, error)

	// FindByID は指定IDのユニットを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, q DBTX, id int64) (*model.Unit, error)

	// FindByCode はコードでユニットを検索する（大文字小文字を区別しない）。
	// excludeIDが0以外の場合、そのIDの行は除外する。見つからない場合はnilを返す。
	FindByCode(ctx context.Context, q DBTX, code string, excludeID int64) (*model.Unit, error)

	// Insert はユニットを作成し、採番済みの行を返す。
	Insert(ctx context.Context, q DBTX, code, name string) (*model.Unit, error)

	// Update は指定されたフィールドのみを更新し、更新後の行を返す。
	// 行が存在しない場合はnilを返す。
	Update(ctx context.Context, q DBTX, id int64, upd model.UnitUpdate) (*model.Unit, error)

	// Delete は指定IDのユニットを削除する。削除した場合trueを返す。
	Delete(ctx context.Context, q DBTX, id int64) (bool, error)
}

// ProgramRepository はプログラムデータの永続化インターフェース。
type ProgramRepository interface {
	// List は検索・ソート・ページネーション付きでプログラム一覧を取得する。
	// 所属ユニットをLEFT JOINし、ユニットのコード・名称も併せて返す。
	List(ctx context.Context, q DBTX, p query.ListParams) ([]model.Program, query.PageInfo, error)

	// ListByUnit は指定ユニットに属するプログラム一覧を返す。
	ListByUnit(ctx context.Context, q DBTX, unitID int64) ([]model.Program, error)

	// FindByID は指定IDのプログラムを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, q DBTX, id int64) (*model.Program, error)

	// FindByCode はコードでプログラムを検索する（大文字小文字を区別しない）。
	// excludeIDが0以外の場合、そのIDの行は除外する。見つからない場合はnilを返す。
	FindByCode(ctx context.Context, q DBTX, code string, excludeID int64) (*model.Program, error)

	// Insert はプログラムを作成し、採番済みの行を返す。
	Insert(ctx context.Context, q DBTX, unitID *int64, code, name string) (*model.Program, error)

	// Update は指定されたフィールドのみを更新し、更新後の行を返す。
	// UnitIDのnull指定はユニットからの切り離しとして扱う。
	// 行が存在しない場合はnilを返す。
	Update(ctx context.Context, q DBTX, id int64, upd model.ProgramUpdate) (*model.Program, error)

	// Delete は指定IDのプログラムを削除する。削除した場合trueを返す。
	Delete(ctx context.Context, q DBTX, id int64) (bool, error)
}

// MemberRepository はメンバーデータの永続化インターフェース。
type MemberRepository interface {
	// List は検索・ソート・ページネーション付きでメンバー一覧を取得する。
	// 所属プログラムをLEFT JOINし、プログラムのコード・名称も併せて返す。
	List(ctx context.Context, q DBTX, p query.ListParams) ([]model.Member, query.PageInfo, error)

	// FindByID は指定IDのメンバーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, q DBTX, id string) (*model.Member, error)

	// Insert はメンバーを作成する。
	Insert(ctx context.Context, q DBTX, m *model.Member) error

	// Update は指定されたフィールドのみを更新する。ID変更（rekey）は
	// このメソッドでは扱わない。更新した場合trueを返す。
	Update(ctx context.Context, q DBTX, id string, upd model.MemberUpdate) (bool, error)

	// Delete は指定IDのメンバーを削除する。削除した場合trueを返す。
	Delete(ctx context.Context, q DBTX, id string) (bool, error)

	// RewriteReferences はメンバーIDを参照する各列について、旧IDを
	// 新IDへ書き換える。書き換えた行の総数を返す。
	// rekeyトランザクション内で、新ID行の挿入後・旧ID行の削除前に呼ぶ。
	RewriteReferences(ctx context.Context, q DBTX, refs []ReferencingColumn, oldID, newID string) (int64, error)
}

// ReferencingColumn はメンバーIDなどを外部キーで参照している列を表す。
type ReferencingColumn struct {
	Table  string
	Column string
}

// SchemaCatalog はスキーマの外部キー関係レジストリ。
// 起動後の初回参照時にinformation_schemaから構築され、以後は
// キャッシュが使われる。Refreshで再構築できる。
type SchemaCatalog interface {
	// ReferencesTo は指定テーブルの指定列を外部キーで参照している
	// 列の一覧を返す。
	ReferencesTo(ctx context.Context, table, column string) ([]ReferencingColumn, error)

	// Refresh はキャッシュを破棄し、次回参照時に再構築させる。
	Refresh()
}
