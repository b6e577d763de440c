// Package handler はHTTP APIのルーティングとハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/rosterman/internal/model"
	"github.com/hitoshi/rosterman/internal/query"
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// listResponse は一覧取得のレスポンス。ページングメタデータを伴う。
type listResponse struct {
	Data       any            `json:"data"`
	Pagination query.PageInfo `json:"pagination"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidRequestBody はリクエストボディ解析失敗のレスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     model.ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: model.CategoryValidation,
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, statusForCategory(apiErr.Category), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う。
	// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// statusForCategory は失敗区分をHTTPステータスコードにマッピングする。
func statusForCategory(category string) int {
	switch category {
	case model.CategoryValidation:
		return http.StatusBadRequest
	case model.CategoryNotFound:
		return http.StatusNotFound
	case model.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// listParamsFromRequest はクエリ文字列から一覧取得パラメータを組み立てる。
// 正規化・クランプはquery.ParseListParamsが行う。
func listParamsFromRequest(r *http.Request) query.ListParams {
	q := r.URL.Query()
	return query.ParseListParams(query.RawListParams{
		Page:     q.Get("page"),
		PerPage:  q.Get("per_page"),
		SortBy:   q.Get("sort_by"),
		Order:    q.Get("order"),
		Search:   q.Get("search"),
		SearchBy: q.Get("search_by"),
	})
}
