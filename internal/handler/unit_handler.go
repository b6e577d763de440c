package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/rosterman/internal/model"
	"github.com/hitoshi/rosterman/internal/query"
)

// UnitServiceInterface はユニットハンドラーが必要とするサービスインターフェース。
type UnitServiceInterface interface {
	List(ctx context.Context, p query.ListParams) ([]model.Unit, query.PageInfo, error)
	Get(ctx context.Context, id int64) (*model.Unit, error)
	ListPrograms(ctx context.Context, unitID int64) ([]model.Program, error)
	Create(ctx context.Context, code, name string) (*model.Unit, error)
	Update(ctx context.Context, id int64, upd model.UnitUpdate) (*model.Unit, error)
	Delete(ctx context.Context, id int64) error
}

// UnitHandler はユニット管理のHTTPハンドラー。
type UnitHandler struct {
	service UnitServiceInterface
}

// NewUnitHandler はUnitHandlerを生成する。
func NewUnitHandler(service UnitServiceInterface) *UnitHandler {
	return &UnitHandler{service: service}
}

// createUnitRequest はユニット作成リクエストのボディ。
type createUnitRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// unitResponse はユニット情報のAPIレスポンス。
type unitResponse struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// List はユニット一覧を返す。
// GET /api/units
func (h *UnitHandler) List(w http.ResponseWriter, r *http.Request) {
	units, page, err := h.service.List(r.Context(), listParamsFromRequest(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	data := make([]unitResponse, len(units))
	for i, u := range units {
		data[i] = toUnitResponse(&u)
	}
	writeJSON(w, http.StatusOK, listResponse{Data: data, Pagination: page})
}

// Get はユニット詳細を返す。
// GET /api/units/{id}
func (h *UnitHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := unitIDParam(w, r)
	if !ok {
		return
	}

	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUnitResponse(u))
}

// ListPrograms はユニットに属するプログラム一覧を返す。
// GET /api/units/{id}/programs
func (h *UnitHandler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	id, ok := unitIDParam(w, r)
	if !ok {
		return
	}

	programs, err := h.service.ListPrograms(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	data := make([]programResponse, len(programs))
	for i, p := range programs {
		data[i] = toProgramResponse(&p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// Create はユニットを作成する。
// POST /api/units
func (h *UnitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	u, err := h.service.Create(r.Context(), req.Code, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUnitResponse(u))
}

// Update はユニットを部分更新する。
// PUT /api/units/{id}
func (h *UnitHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := unitIDParam(w, r)
	if !ok {
		return
	}

	var upd model.UnitUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	u, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUnitResponse(u))
}

// Delete はユニットを削除する。
// DELETE /api/units/{id}
func (h *UnitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := unitIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// unitIDParam はパスパラメータのユニットIDを解析する。
func unitIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUnitNotFoundError())
		return 0, false
	}
	return id, true
}

// toUnitResponse はmodel.UnitからAPIレスポンスに変換する。
func toUnitResponse(u *model.Unit) unitResponse {
	return unitResponse{
		ID:   u.ID,
		Code: u.Code,
		Name: u.Name,
	}
}
