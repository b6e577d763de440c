package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/rosterman/internal/model"
	"github.com/hitoshi/rosterman/internal/query"
)

// --- モック定義 ---

// mockProgramService はProgramServiceInterfaceのモック実装。
type mockProgramService struct {
	listFn   func(ctx context.Context, p query.ListParams) ([]model.Program, query.PageInfo, error)
	getFn    func(ctx context.Context, id int64) (*model.Program, error)
	createFn func(ctx context.Context, unitID *int64, code, name string) (*model.Program, error)
	updateFn func(ctx context.Context, id int64, upd model.ProgramUpdate) (*model.Program, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockProgramService) List(ctx context.Context, p query.ListParams) ([]model.Program, query.PageInfo, error) {
	if m.listFn != nil {
		return m.listFn(ctx, p)
	}
	return nil, query.PageInfo{}, nil
}

func (m *mockProgramService) Get(ctx context.Context, id int64) (*model.Program, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProgramService) Create(ctx context.Context, unitID *int64, code, name string) (*model.Program, error) {
	if m.createFn != nil {
		return m.createFn(ctx, unitID, code, name)
	}
	return nil, nil
}

func (m *mockProgramService) Update(ctx context.Context, id int64, upd model.ProgramUpdate) (*model.Program, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, upd)
	}
	return nil, nil
}

func (m *mockProgramService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- GET /api/programs テスト ---

func TestProgramHandler_List_Success(t *testing.T) {
	uid := int64(5)
	h := NewProgramHandler(&mockProgramService{
		listFn: func(ctx context.Context, p query.ListParams) ([]model.Program, query.PageInfo, error) {
			return []model.Program{
				{ID: 1, UnitID: &uid, Code: "BSCE", Name: "BS Computer Engineering", UnitCode: "ENG", UnitName: "Engineering"},
				{ID: 2, Code: "ORPH", Name: "Orphan Program"},
			}, query.PageInfo{Page: 1, PerPage: 10, Total: 2, TotalPages: 1}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/programs", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Data) != 2 {
		t.Fatalf("data length = %d, want 2", len(result.Data))
	}
	if result.Data[0]["unit_code"] != "ENG" {
		t.Errorf("unit_code = %v, want ENG", result.Data[0]["unit_code"])
	}
	// ユニット未所属のプログラムはunit_idがnull
	if result.Data[1]["unit_id"] != nil {
		t.Errorf("unit_id = %v, want null", result.Data[1]["unit_id"])
	}
}

// --- POST /api/programs テスト ---

func TestProgramHandler_Create_WithUnit(t *testing.T) {
	h := NewProgramHandler(&mockProgramService{
		createFn: func(ctx context.Context, unitID *int64, code, name string) (*model.Program, error) {
			if unitID == nil || *unitID != 5 {
				t.Errorf("unitID = %v, want 5", unitID)
			}
			return &model.Program{ID: 1, UnitID: unitID, Code: code, Name: name}, nil
		},
	})

	body := bytes.NewBufferString(`{"unit_id":5,"code":"BSCE","name":"BS Computer Engineering"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/programs", body)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestProgramHandler_Create_UnitNotFound(t *testing.T) {
	h := NewProgramHandler(&mockProgramService{
		createFn: func(ctx context.Context, unitID *int64, code, name string) (*model.Program, error) {
			return nil, model.NewUnitNotFoundError()
		},
	})

	body := bytes.NewBufferString(`{"unit_id":99,"code":"BSCE","name":"BS Computer Engineering"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/programs", body)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- PUT /api/programs/{id} テスト ---

func TestProgramHandler_Update_NullUnitID(t *testing.T) {
	h := NewProgramHandler(&mockProgramService{
		updateFn: func(ctx context.Context, id int64, upd model.ProgramUpdate) (*model.Program, error) {
			if !upd.UnitID.Set || !upd.UnitID.Null {
				t.Errorf("UnitID = %+v, want explicit null", upd.UnitID)
			}
			return &model.Program{ID: id, Code: "BSCE", Name: "BS Computer Engineering"}, nil
		},
	})

	body := bytes.NewBufferString(`{"unit_id":null}`)
	req := httptest.NewRequest(http.MethodPut, "/api/programs/1", body)
	req = withChiURLParam(req, "id", "1")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// --- DELETE /api/programs/{id} テスト ---

func TestProgramHandler_Delete_Referenced(t *testing.T) {
	h := NewProgramHandler(&mockProgramService{
		deleteFn: func(ctx context.Context, id int64) error {
			return model.NewReferencedError("プログラム")
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/programs/1", nil)
	req = withChiURLParam(req, "id", "1")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}
