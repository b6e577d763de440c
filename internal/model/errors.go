package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// Categoryが失敗区分を表し、HTTPステータスへの対応付けはハンドラー層が行う。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, not_found, conflict, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 失敗区分。BadRequest / NotFound / Conflict / ServerError に対応する。
const (
	CategoryValidation = "validation"
	CategoryNotFound   = "not_found"
	CategoryConflict   = "conflict"
	CategorySystem     = "system"
)

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeRequiredField     = "REQUIRED_FIELD"
	ErrCodeInvalidMemberID   = "INVALID_MEMBER_ID"
	ErrCodeInvalidYearLevel  = "INVALID_YEAR_LEVEL"
	ErrCodeInvalidGender     = "INVALID_GENDER"
	ErrCodeUnitNotFound      = "UNIT_NOT_FOUND"
	ErrCodeProgramNotFound   = "PROGRAM_NOT_FOUND"
	ErrCodeMemberNotFound    = "MEMBER_NOT_FOUND"
	ErrCodeDuplicateCode     = "DUPLICATE_CODE"
	ErrCodeDuplicateMemberID = "DUPLICATE_MEMBER_ID"
	ErrCodeReferenced        = "ROW_REFERENCED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewRequiredFieldError は必須フィールド未指定エラーを生成する。
func NewRequiredFieldError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeRequiredField,
		Message:  fmt.Sprintf("%s は必須です。", field),
		Category: CategoryValidation,
		Action:   "必須フィールドを入力してください。",
	}
}

// NewInvalidMemberIDError はメンバーID形式エラーを生成する。
func NewInvalidMemberIDError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidMemberID,
		Message:  fmt.Sprintf("メンバーIDはNNNN-NNNN形式で指定してください: %s", id),
		Category: CategoryValidation,
		Action:   "4桁-4桁の形式（例: 2024-0001）で入力してください。",
	}
}

// NewInvalidYearLevelError は学年範囲エラーを生成する。
func NewInvalidYearLevelError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidYearLevel,
		Message:  "学年は1から5の範囲で指定してください。",
		Category: CategoryValidation,
		Action:   "1〜5の整数を入力してください。",
	}
}

// NewInvalidGenderError は性別の値エラーを生成する。
func NewInvalidGenderError(g string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidGender,
		Message:  fmt.Sprintf("性別はMale、Female、Otherのいずれかを指定してください: %s", g),
		Category: CategoryValidation,
		Action:   "定義済みの性別のいずれかを選択してください。",
	}
}

// NewUnitNotFoundError はユニット未検出エラーを生成する。
func NewUnitNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUnitNotFound,
		Message:  "指定されたユニットが見つかりません。",
		Category: CategoryNotFound,
		Action:   "ユニットIDを確認してください。",
	}
}

// NewProgramNotFoundError はプログラム未検出エラーを生成する。
func NewProgramNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeProgramNotFound,
		Message:  "指定されたプログラムが見つかりません。",
		Category: CategoryNotFound,
		Action:   "プログラムIDを確認してください。",
	}
}

// NewMemberNotFoundError はメンバー未検出エラーを生成する。
func NewMemberNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeMemberNotFound,
		Message:  fmt.Sprintf("指定されたメンバーが見つかりません: %s", id),
		Category: CategoryNotFound,
		Action:   "メンバーIDを確認してください。",
	}
}

// NewDuplicateCodeError はコード重複エラーを生成する。
// コードの一意性は大文字小文字を区別せずに判定される。
func NewDuplicateCodeError(entity, code string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateCode,
		Message:  fmt.Sprintf("%sコード '%s' は既に使用されています。", entity, code),
		Category: CategoryConflict,
		Action:   "別のコードを指定してください。",
	}
}

// NewDuplicateMemberIDError はメンバーID重複エラーを生成する。
func NewDuplicateMemberIDError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateMemberID,
		Message:  fmt.Sprintf("メンバーID '%s' は既に使用されています。", id),
		Category: CategoryConflict,
		Action:   "別のメンバーIDを指定してください。",
	}
}

// NewReferencedError は参照されている行の削除拒否エラーを生成する。
func NewReferencedError(entity string) *APIError {
	return &APIError{
		Code:     ErrCodeReferenced,
		Message:  fmt.Sprintf("この%sは他のデータから参照されているため削除できません。", entity),
		Category: CategoryConflict,
		Action:   "参照しているデータを先に削除または付け替えてください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、呼び出し元には一般的なメッセージだけを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: CategorySystem,
		Action:   "しばらく待ってから再度お試しください。",
	}
}
