// Package program はプログラム管理のドメインロジックを提供する。
package program

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/rosterman/internal/model"
	"github.com/hitoshi/rosterman/internal/query"
	"github.com/hitoshi/rosterman/internal/repository"
)

// Service はプログラム管理のサービス層。
type Service struct {
	db       *sql.DB
	programs repository.ProgramRepository
	units    repository.UnitRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(db *sql.DB, programs repository.ProgramRepository, units repository.UnitRepository) *Service {
	return &Service{
		db:       db,
		programs: programs,
		units:    units,
	}
}

// List は検索・ソート・ページネーション付きでプログラム一覧を返す。
func (s *Service) List(ctx context.Context, p query.ListParams) ([]model.Program, query.PageInfo, error) {
	return s.programs.List(ctx, s.db, p)
}

// Get は指定IDのプログラムを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Program, error) {
	p, err := s.programs.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewProgramNotFoundError()
	}
	return p, nil
}

// Create はプログラムを作成する。unitIDが指定された場合、ユニットの存在を
// 事前に確認する。
func (s *Service) Create(ctx context.Context, unitID *int64, code, name string) (*model.Program, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, model.NewRequiredFieldError("code")
	}
	if name == "" {
		return nil, model.NewRequiredFieldError("name")
	}

	if unitID != nil {
		u, err := s.units.FindByID(ctx, s.db, *unitID)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, model.NewUnitNotFoundError()
		}
	}

	existing, err := s.programs.FindByCode(ctx, s.db, code, 0)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewDuplicateCodeError("プログラム", code)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	p, err := s.programs.Insert(ctx, tx, unitID, code, name)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewDuplicateCodeError("プログラム", code)
		}
		if repository.IsForeignKeyViolation(err) {
			return nil, model.NewUnitNotFoundError()
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	// JOIN済みのユニット情報を含めて返す
	return s.Get(ctx, p.ID)
}

// Update はプログラムを部分更新する。UnitIDのnull指定はユニットからの
// 切り離しとして扱う。
func (s *Service) Update(ctx context.Context, id int64, upd model.ProgramUpdate) (*model.Program, error) {
	if upd.Code.Present() {
		upd.Code.Value = strings.TrimSpace(upd.Code.Value)
		if upd.Code.Value == "" {
			return nil, model.NewRequiredFieldError("code")
		}
		existing, err := s.programs.FindByCode(ctx, s.db, upd.Code.Value, id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, model.NewDuplicateCodeError("プログラム", upd.Code.Value)
		}
	}
	if upd.Name.Present() {
		upd.Name.Value = strings.TrimSpace(upd.Name.Value)
		if upd.Name.Value == "" {
			return nil, model.NewRequiredFieldError("name")
		}
	}
	if upd.UnitID.Present() {
		u, err := s.units.FindByID(ctx, s.db, upd.UnitID.Value)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, model.NewUnitNotFoundError()
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	p, err := s.programs.Update(ctx, tx, id, upd)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewDuplicateCodeError("プログラム", upd.Code.Value)
		}
		if repository.IsForeignKeyViolation(err) {
			return nil, model.NewUnitNotFoundError()
		}
		return nil, err
	}
	if p == nil {
		return nil, model.NewProgramNotFoundError()
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return p, nil
}

// Delete はプログラムを削除する。
// メンバーから参照されているプログラムの削除は競合として拒否される。
func (s *Service) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	deleted, err := s.programs.Delete(ctx, tx, id)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return model.NewReferencedError("プログラム")
		}
		return err
	}
	if !deleted {
		return model.NewProgramNotFoundError()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}
