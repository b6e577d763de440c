package model

import "regexp"

// memberIDPattern はメンバーIDの形式（4桁-4桁）を表す。
var memberIDPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)

// IsValidMemberID はメンバーIDがNNNN-NNNN形式かどうかを返す。
func IsValidMemberID(id string) bool {
	return memberIDPattern.MatchString(id)
}

// Gender はメンバーの性別を表す。
type Gender string

const (
	// GenderMale は男性。
	GenderMale Gender = "Male"
	// GenderFemale は女性。
	GenderFemale Gender = "Female"
	// GenderOther はその他。
	GenderOther Gender = "Other"
)

// IsValidGender は性別が定義済みの値かどうかを返す。
func IsValidGender(g string) bool {
	switch Gender(g) {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Member はプログラムに所属する個人（旧称: student）を表す。
// IDは人間が採番するNNNN-NNNN形式の文字列で、主キーかつ業務識別子を兼ねる。
// IDの変更は行の再作成と参照の付け替え（rekey）を必要とする。
type Member struct {
	ID        string
	FirstName string
	LastName  string
	ProgramID *int64
	YearLevel int
	Gender    Gender

	// Photo は外部オブジェクトストレージ上のパス。本システムは中身を読まない。
	Photo string

	// JOINで取得するプログラム情報。プログラム未所属の場合は空文字列。
	ProgramCode string
	ProgramName string
}

// MemberUpdate はメンバーの部分更新ペイロードを表す。
// IDが現在値と異なる場合はrekey（行の再作成と参照の付け替え）として処理される。
// ProgramID・Photoのnull指定はクリアを意味する。
type MemberUpdate struct {
	ID        Optional[string] `json:"id"`
	FirstName Optional[string] `json:"first_name"`
	LastName  Optional[string] `json:"last_name"`
	ProgramID Optional[int64]  `json:"program_id"`
	YearLevel Optional[int]    `json:"year_level"`
	Gender    Optional[string] `json:"gender"`
	Photo     Optional[string] `json:"photo"`
}
