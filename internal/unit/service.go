// Package unit はユニット管理のドメインロジックを提供する。
package unit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/rosterman/internal/model"
	"github.com/hitoshi/rosterman/internal/query"
	"github.com/hitoshi/rosterman/internal/repository"
)

// Service はユニット管理のサービス層。
// トランザクション境界を管理し、リポジトリにはセッションハンドルを明示的に渡す。
type Service struct {
	db       *sql.DB
	units    repository.UnitRepository
	programs repository.ProgramRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(db *sql.DB, units repository.UnitRepository, programs repository.ProgramRepository) *Service {
	return &Service{
		db:       db,
		units:    units,
		programs: programs,
	}
}

// List は検索・ソート・ページネーション付きでユニット一覧を返す。
func (s *Service) List(ctx context.Context, p query.ListParams) ([]model.Unit, query.PageInfo, error) {
	return s.units.List(ctx, s.db, p)
}

// Get は指定IDのユニットを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Unit, error) {
	u, err := s.units.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, model.NewUnitNotFoundError()
	}
	return u, nil
}

// ListPrograms は指定ユニットに属するプログラム一覧を返す。
func (s *Service) ListPrograms(ctx context.Context, unitID int64) ([]model.Program, error) {
	u, err := s.units.FindByID(ctx, s.db, unitID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, model.NewUnitNotFoundError()
	}
	return s.programs.ListByUnit(ctx, s.db, unitID)
}

// Create はユニットを作成する。
// コードの一意性は大文字小文字を区別せずに事前チェックし、すり抜けた
// 同時挿入の競合は一意性制約違反として捕捉する。
func (s *Service) Create(ctx context.Context, code, name string) (*model.Unit, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, model.NewRequiredFieldError("code")
	}
	if name == "" {
		return nil, model.NewRequiredFieldError("name")
	}

	existing, err := s.units.FindByCode(ctx, s.db, code, 0)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewDuplicateCodeError("ユニット", code)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	u, err := s.units.Insert(ctx, tx, code, name)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewDuplicateCodeError("ユニット", code)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return u, nil
}

// Update はユニットを部分更新する。指定されなかったフィールドは変更しない。
func (s *Service) Update(ctx context.Context, id int64, upd model.UnitUpdate) (*model.Unit, error) {
	if upd.Code.Present() {
		upd.Code.Value = strings.TrimSpace(upd.Code.Value)
		if upd.Code.Value == "" {
			return nil, model.NewRequiredFieldError("code")
		}
		existing, err := s.units.FindByCode(ctx, s.db, upd.Code.Value, id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, model.NewDuplicateCodeError("ユニット", upd.Code.Value)
		}
	}
	if upd.Name.Present() {
		upd.Name.Value = strings.TrimSpace(upd.Name.Value)
		if upd.Name.Value == "" {
			return nil, model.NewRequiredFieldError("name")
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	u, err := s.units.Update(ctx, tx, id, upd)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewDuplicateCodeError("ユニット", upd.Code.Value)
		}
		return nil, err
	}
	if u == nil {
		return nil, model.NewUnitNotFoundError()
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return u, nil
}

// Delete はユニットを削除する。
// プログラムから参照されているユニットの削除は競合として拒否される。
func (s *Service) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	deleted, err := s.units.Delete(ctx, tx, id)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return model.NewReferencedError("ユニット")
		}
		return err
	}
	if !deleted {
		return model.NewUnitNotFoundError()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}
