package model

import "encoding/json"

// Optional は部分更新ペイロードの3状態フィールドを表す。
// 状態は「未指定」「null指定」「値指定」の3つで、
// 未指定は「変更しない」、null指定は「クリアする」を区別して扱う。
// encoding/jsonはフィールドがJSONに存在する場合のみUnmarshalJSONを
// 呼び出すため、Setフラグがそのまま存在判定になる。
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// Present は値が指定されている（nullでなく存在する）かどうかを返す。
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// NewOptional は値指定状態のOptionalを生成する。テストおよびサービス層用。
func NewOptional[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// NullOptional はnull指定状態のOptionalを生成する。
func NullOptional[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}
