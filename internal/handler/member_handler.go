package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/rosterman/internal/member"
	"github.com/hitoshi/rosterman/internal/model"
	"github.com/hitoshi/rosterman/internal/photo"
	"github.com/hitoshi/rosterman/internal/query"
)

// maxPhotoSize は写真アップロードの上限サイズ（5MB）。
const maxPhotoSize = 5 << 20

// MemberServiceInterface はメンバーハンドラーが必要とするサービスインターフェース。
type MemberServiceInterface interface {
	List(ctx context.Context, p query.ListParams) ([]model.Member, query.PageInfo, error)
	Get(ctx context.Context, id string) (*model.Member, error)
	Create(ctx context.Context, in member.CreateInput) (*model.Member, error)
	Update(ctx context.Context, id string, upd model.MemberUpdate) (*model.Member, string, error)
	Delete(ctx context.Context, id string) (string, error)
	SetPhoto(ctx context.Context, id, path string) (string, error)
}

// PhotoStorageInterface はメンバーハンドラーが必要とするストレージインターフェース。
// ストレージ未設定のデプロイではnilになり、写真エンドポイントは無効になる。
type PhotoStorageInterface interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// MemberHandler はメンバー管理のHTTPハンドラー。
type MemberHandler struct {
	service MemberServiceInterface
	storage PhotoStorageInterface
}

// NewMemberHandler はMemberHandlerを生成する。storageはnil可。
func NewMemberHandler(service MemberServiceInterface, storage PhotoStorageInterface) *MemberHandler {
	return &MemberHandler{
		service: service,
		storage: storage,
	}
}

// createMemberRequest はメンバー作成リクエストのボディ。
type createMemberRequest struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ProgramID *int64 `json:"program_id"`
	YearLevel int    `json:"year_level"`
	Gender    string `json:"gender"`
}

// memberResponse はメンバー情報のAPIレスポンス。
type memberResponse struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	ProgramID   *int64 `json:"program_id"`
	YearLevel   int    `json:"year_level"`
	Gender      string `json:"gender"`
	Photo       string `json:"photo"`
	PhotoURL    string `json:"photo_url,omitempty"`
	ProgramCode string `json:"program_code"`
	ProgramName string `json:"program_name"`
}

// List はメンバー一覧を返す。
// GET /api/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, page, err := h.service.List(r.Context(), listParamsFromRequest(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	data := make([]memberResponse, len(members))
	for i, m := range members {
		data[i] = h.toMemberResponse(&m)
	}
	writeJSON(w, http.StatusOK, listResponse{Data: data, Pagination: page})
}

// Get はメンバー詳細を返す。
// GET /api/members/{id}
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toMemberResponse(m))
}

// Create はメンバーを作成する。
// POST /api/members
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	m, err := h.service.Create(r.Context(), member.CreateInput{
		ID:        req.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ProgramID: req.ProgramID,
		YearLevel: req.YearLevel,
		Gender:    req.Gender,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toMemberResponse(m))
}

// Update はメンバーを部分更新する。ペイロードのIDが現在値と異なる場合、
// ID変更（行の再作成と参照の付け替え）として処理される。
// PUT /api/members/{id}
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd model.MemberUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	m, prevPhoto, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.disposePhoto(r.Context(), prevPhoto)
	writeJSON(w, http.StatusOK, h.toMemberResponse(m))
}

// Delete はメンバーを削除する。写真オブジェクトもベストエフォートで破棄する。
// DELETE /api/members/{id}
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	prevPhoto, err := h.service.Delete(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.disposePhoto(r.Context(), prevPhoto)
	w.WriteHeader(http.StatusNoContent)
}

// UploadPhoto はメンバーの写真をアップロードする。
// POST /api/members/{id}/photo
func (h *MemberHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		writeStorageDisabled(w)
		return
	}
	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "マルチパートフォームの解析に失敗しました。",
			Category: model.CategoryValidation,
			Action:   "photoフィールドに画像ファイルを指定してください。",
		})
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewRequiredFieldError("photo"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoSize))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "画像ファイルのみアップロードできます。",
			Category: model.CategoryValidation,
			Action:   "JPEG・PNGなどの画像ファイルを指定してください。",
		})
		return
	}

	// 先に行の存在を確認してからアップロードする
	if _, err := h.service.Get(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	key := photo.NewObjectKey(id, header.Filename)
	if err := h.storage.Upload(r.Context(), key, contentType, data); err != nil {
		handleServiceError(w, err)
		return
	}

	prevPhoto, err := h.service.SetPhoto(r.Context(), id, key)
	if err != nil {
		// レコード更新に失敗した場合、アップロード済みオブジェクトを破棄する
		h.disposePhoto(r.Context(), key)
		handleServiceError(w, err)
		return
	}

	h.disposePhoto(r.Context(), prevPhoto)
	writeJSON(w, http.StatusOK, map[string]string{
		"photo":     key,
		"photo_url": h.storage.PublicURL(key),
	})
}

// DeletePhoto はメンバーの写真を削除する。
// DELETE /api/members/{id}/photo
func (h *MemberHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		writeStorageDisabled(w)
		return
	}
	id := chi.URLParam(r, "id")

	prevPhoto, err := h.service.SetPhoto(r.Context(), id, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.disposePhoto(r.Context(), prevPhoto)
	w.WriteHeader(http.StatusNoContent)
}

// disposePhoto は不要になった写真オブジェクトをベストエフォートで破棄する。
// 失敗してもレコード操作は成功として扱い、ログだけ残す。
func (h *MemberHandler) disposePhoto(ctx context.Context, key string) {
	if h.storage == nil || key == "" {
		return
	}
	if err := h.storage.Delete(ctx, key); err != nil {
		slog.Warn("写真オブジェクトの破棄に失敗しました",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// writeStorageDisabled はストレージ未設定時のレスポンスを書き込む。
func writeStorageDisabled(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
		Code:     "STORAGE_DISABLED",
		Message:  "写真ストレージが設定されていません。",
		Category: model.CategorySystem,
		Action:   "サーバーのストレージ設定を確認してください。",
	})
}

// toMemberResponse はmodel.MemberからAPIレスポンスに変換する。
func (h *MemberHandler) toMemberResponse(m *model.Member) memberResponse {
	resp := memberResponse{
		ID:          m.ID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		ProgramID:   m.ProgramID,
		YearLevel:   m.YearLevel,
		Gender:      string(m.Gender),
		Photo:       m.Photo,
		ProgramCode: m.ProgramCode,
		ProgramName: m.ProgramName,
	}
	if h.storage != nil && m.Photo != "" {
		resp.PhotoURL = h.storage.PublicURL(m.Photo)
	}
	return resp
}
