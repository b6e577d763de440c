// Package model はドメインモデルを定義する。
package model

// Unit は組織の最上位グループ（旧称: college）を表す。
type Unit struct {
	ID   int64
	Code string
	Name string
}

// UnitUpdate はユニットの部分更新ペイロードを表す。
// フィールド未指定は「変更しない」、null指定は「クリアする」を意味する。
type UnitUpdate struct {
	Code Optional[string] `json:"code"`
	Name Optional[string] `json:"name"`
}
