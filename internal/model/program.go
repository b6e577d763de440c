package model

// Program はユニットに属するプログラムを表す。
// UnitIDはnil許容で、どのユニットにも属さないプログラムが存在しうる。
type Program struct {
	ID     int64
	UnitID *int64
	Code   string
	Name   string

	// JOINで取得するユニット情報。ユニット未所属の場合は空文字列。
	UnitCode string
	UnitName string
}

// ProgramUpdate はプログラムの部分更新ペイロードを表す。
// UnitIDのnull指定はユニットからの切り離しを意味する。
type ProgramUpdate struct {
	UnitID Optional[int64]  `json:"unit_id"`
	Code   Optional[string] `json:"code"`
	Name   Optional[string] `json:"name"`
}
