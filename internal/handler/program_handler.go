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

// ProgramServiceInterface はプログラムハンドラーが必要とするサービスインターフェース。
type ProgramServiceInterface interface {
	List(ctx context.Context, p query.ListParams) ([]model.Program, query.PageInfo, error)
	Get(ctx context.Context, id int64) (*model.Program, error)
	Create(ctx context.Context, unitID *int64, code, name string) (*model.Program, error)
	Update(ctx context.Context, id int64, upd model.ProgramUpdate) (*model.Program, error)
	Delete(ctx context.Context, id int64) error
}

// ProgramHandler はプログラム管理のHTTPハンドラー。
type ProgramHandler struct {
	service ProgramServiceInterface
}

// NewProgramHandler はProgramHandlerを生成する。
func NewProgramHandler(service ProgramServiceInterface) *ProgramHandler {
	return &ProgramHandler{service: service}
}

// createProgramRequest はプログラム作成リクエストのボディ。
type createProgramRequest struct {
	UnitID *int64 `json:"unit_id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
}

// programResponse はプログラム情報のAPIレスポンス。
type programResponse struct {
	ID       int64  `json:"id"`
	UnitID   *int64 `json:"unit_id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	UnitCode string `json:"unit_code"`
	UnitName string `json:"unit_name"`
}

// List はプログラム一覧を返す。
// GET /api/programs
func (h *ProgramHandler) List(w http.ResponseWriter, r *http.Request) {
	programs, page, err := h.service.List(r.Context(), listParamsFromRequest(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	data := make([]programResponse, len(programs))
	for i, p := range programs {
		data[i] = toProgramResponse(&p)
	}
	writeJSON(w, http.StatusOK, listResponse{Data: data, Pagination: page})
}

// Get はプログラム詳細を返す。
// GET /api/programs/{id}
func (h *ProgramHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := programIDParam(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProgramResponse(p))
}

// Create はプログラムを作成する。
// POST /api/programs
func (h *ProgramHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	p, err := h.service.Create(r.Context(), req.UnitID, req.Code, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProgramResponse(p))
}

// Update はプログラムを部分更新する。
// PUT /api/programs/{id}
func (h *ProgramHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := programIDParam(w, r)
	if !ok {
		return
	}

	var upd model.ProgramUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	p, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProgramResponse(p))
}

// Delete はプログラムを削除する。
// DELETE /api/programs/{id}
func (h *ProgramHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := programIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// programIDParam はパスパラメータのプログラムIDを解析する。
func programIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewProgramNotFoundError())
		return 0, false
	}
	return id, true
}

// toProgramResponse はmodel.ProgramからAPIレスポンスに変換する。
func toProgramResponse(p *model.Program) programResponse {
	return programResponse{
		ID:       p.ID,
		UnitID:   p.UnitID,
		Code:     p.Code,
		Name:     p.Name,
		UnitCode: p.UnitCode,
		UnitName: p.UnitName,
	}
}
