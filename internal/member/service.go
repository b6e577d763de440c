// Package member はメンバー管理のドメインロジックを提供する。
// メンバーIDの変更は行の再作成と参照の付け替え（rekey）として
// 単一トランザクションで処理される。
package member

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/rosterman/internal/model"
	"github.com/hitoshi/rosterman/internal/query"
	"github.com/hitoshi/rosterman/internal/repository"
)

// RekeyRecorder はrekey結果のメトリクス記録インターフェース。
type RekeyRecorder interface {
	RecordRekeySuccess()
	RecordRekeyFailure()
}

// CreateInput はメンバー作成の入力。
type CreateInput struct {
	ID        string
	FirstName string
	LastName  string
	ProgramID *int64
	YearLevel int
	Gender    string
}

// Service はメンバー管理のサービス層。
type Service struct {
	db       *sql.DB
	members  repository.MemberRepository
	programs repository.ProgramRepository
	catalog  repository.SchemaCatalog
	metrics  RekeyRecorder
	logger   *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnil可。
func NewService(
	db *sql.DB,
	members repository.MemberRepository,
	programs repository.ProgramRepository,
	catalog repository.SchemaCatalog,
	metrics RekeyRecorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		db:       db,
		members:  members,
		programs: programs,
		catalog:  catalog,
		metrics:  metrics,
		logger:   logger,
	}
}

// List は検索・ソート・ページネーション付きでメンバー一覧を返す。
func (s *Service) List(ctx context.Context, p query.ListParams) ([]model.Member, query.PageInfo, error) {
	return s.members.List(ctx, s.db, p)
}

// Get は指定IDのメンバーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Member, error) {
	m, err := s.members.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, model.NewMemberNotFoundError(id)
	}
	return m, nil
}

// Create はメンバーを作成する。IDは呼び出し側が採番するNNNN-NNNN形式。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Member, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if in.ID == "" {
		return nil, model.NewRequiredFieldError("id")
	}
	if !model.IsValidMemberID(in.ID) {
		return nil, model.NewInvalidMemberIDError(in.ID)
	}
	if in.FirstName == "" {
		return nil, model.NewRequiredFieldError("first_name")
	}
	if in.LastName == "" {
		return nil, model.NewRequiredFieldError("last_name")
	}
	if in.YearLevel < 1 || in.YearLevel > 5 {
		return nil, model.NewInvalidYearLevelError()
	}
	if !model.IsValidGender(in.Gender) {
		return nil, model.NewInvalidGenderError(in.Gender)
	}

	if in.ProgramID != nil {
		p, err := s.programs.FindByID(ctx, s.db, *in.ProgramID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, model.NewProgramNotFoundError()
		}
	}

	existing, err := s.members.FindByID(ctx, s.db, in.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewDuplicateMemberIDError(in.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	m := &model.Member{
		ID:        in.ID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		ProgramID: in.ProgramID,
		YearLevel: in.YearLevel,
		Gender:    model.Gender(in.Gender),
	}
	if err := s.members.Insert(ctx, tx, m); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewDuplicateMemberIDError(in.ID)
		}
		if repository.IsForeignKeyViolation(err) {
			return nil, model.NewProgramNotFoundError()
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return s.Get(ctx, in.ID)
}

// Update はメンバーを部分更新する。ペイロードのIDが現在値と異なる場合は
// rekeyとして処理される。写真パスが変更またはクリアされた場合、破棄すべき
// 旧写真のパスを併せて返す。
func (s *Service) Update(ctx context.Context, id string, upd model.MemberUpdate) (*model.Member, string, error) {
	if err := s.validateUpdate(ctx, upd); err != nil {
		return nil, "", err
	}

	current, err := s.members.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, "", err
	}
	if current == nil {
		return nil, "", model.NewMemberNotFoundError(id)
	}

	// 旧写真パス: 写真が差し替え・クリアされる場合のみ呼び出し側に返す
	prevPhoto := ""
	if upd.Photo.Set && current.Photo != "" {
		if upd.Photo.Null || upd.Photo.Value != current.Photo {
			prevPhoto = current.Photo
		}
	}

	if upd.ID.Present() && strings.TrimSpace(upd.ID.Value) != id {
		m, err := s.rekey(ctx, current, upd)
		if err != nil {
			return nil, "", err
		}
		return m, prevPhoto, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	updated, err := s.members.Update(ctx, tx, id, upd)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, "", model.NewProgramNotFoundError()
		}
		return nil, "", err
	}
	if !updated {
		return nil, "", model.NewMemberNotFoundError(id)
	}

	if err := tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return m, prevPhoto, nil
}

// Delete はメンバーを削除し、破棄すべき写真のパスを返す。
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	current, err := s.members.FindByID(ctx, s.db, id)
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", model.NewMemberNotFoundError(id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	deleted, err := s.members.Delete(ctx, tx, id)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return "", model.NewReferencedError("メンバー")
		}
		return "", err
	}
	if !deleted {
		return "", model.NewMemberNotFoundError(id)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return current.Photo, nil
}

// SetPhoto はメンバーの写真パスを更新し、差し替え前のパスを返す。
func (s *Service) SetPhoto(ctx context.Context, id, path string) (string, error) {
	upd := model.MemberUpdate{}
	if path == "" {
		upd.Photo = model.NullOptional[string]()
	} else {
		upd.Photo = model.NewOptional(path)
	}
	_, prevPhoto, err := s.Update(ctx, id, upd)
	return prevPhoto, err
}

// validateUpdate は部分更新ペイロードの指定フィールドを検証する。
func (s *Service) validateUpdate(ctx context.Context, upd model.MemberUpdate) error {
	if upd.ID.Set {
		if upd.ID.Null || strings.TrimSpace(upd.ID.Value) == "" {
			return model.NewRequiredFieldError("id")
		}
		if !model.IsValidMemberID(strings.TrimSpace(upd.ID.Value)) {
			return model.NewInvalidMemberIDError(upd.ID.Value)
		}
	}
	if upd.FirstName.Set {
		if upd.FirstName.Null || strings.TrimSpace(upd.FirstName.Value) == "" {
			return model.NewRequiredFieldError("first_name")
		}
	}
	if upd.LastName.Set {
		if upd.LastName.Null || strings.TrimSpace(upd.LastName.Value) == "" {
			return model.NewRequiredFieldError("last_name")
		}
	}
	if upd.YearLevel.Present() {
		if upd.YearLevel.Value < 1 || upd.YearLevel.Value > 5 {
			return model.NewInvalidYearLevelError()
		}
	}
	if upd.Gender.Set {
		if upd.Gender.Null || !model.IsValidGender(upd.Gender.Value) {
			return model.NewInvalidGenderError(upd.Gender.Value)
		}
	}
	if upd.ProgramID.Present() {
		p, err := s.programs.FindByID(ctx, s.db, upd.ProgramID.Value)
		if err != nil {
			return err
		}
		if p == nil {
			return model.NewProgramNotFoundError()
		}
	}
	return nil
}

// rekey はメンバーIDの変更を行の再作成と参照の付け替えとして処理する。
// 順序は固定: 新ID行の挿入 → 参照の書き換え → 旧ID行の削除。
// 途中で参照が宙に浮かないよう、全体を1トランザクションで実行する。
func (s *Service) rekey(ctx context.Context, current *model.Member, upd model.MemberUpdate) (*model.Member, error) {
	newID := strings.TrimSpace(upd.ID.Value)
	oldID := current.ID

	existing, err := s.members.FindByID(ctx, s.db, newID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewDuplicateMemberIDError(newID)
	}

	// 参照列はスキーマカタログから発見する。テーブルを列挙したハード
	// コードを持たないため、参照テーブルの増減に追従できる。
	refs, err := s.catalog.ReferencesTo(ctx, "members", "id")
	if err != nil {
		return nil, err
	}

	m, err := s.rekeyTx(ctx, current, upd, refs, oldID, newID)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRekeyFailure()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordRekeySuccess()
	}
	s.logger.Info("メンバーIDを変更しました",
		slog.String("old_id", oldID),
		slog.String("new_id", newID),
		slog.Int("referencing_columns", len(refs)),
	)

	return m, nil
}

func (s *Service) rekeyTx(ctx context.Context, current *model.Member, upd model.MemberUpdate, refs []repository.ReferencingColumn, oldID, newID string) (*model.Member, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	merged := mergeMember(current, upd)
	merged.ID = newID

	if err := s.members.Insert(ctx, tx, merged); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewDuplicateMemberIDError(newID)
		}
		if repository.IsForeignKeyViolation(err) {
			return nil, model.NewProgramNotFoundError()
		}
		return nil, err
	}

	if _, err := s.members.RewriteReferences(ctx, tx, refs, oldID, newID); err != nil {
		return nil, err
	}

	deleted, err := s.members.Delete(ctx, tx, oldID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, model.NewMemberNotFoundError(oldID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return s.Get(ctx, newID)
}

// mergeMember は現在行にペイロードの指定フィールドを重ねた行を作る。
func mergeMember(current *model.Member, upd model.MemberUpdate) *model.Member {
	m := &model.Member{
		ID:        current.ID,
		FirstName: current.FirstName,
		LastName:  current.LastName,
		ProgramID: current.ProgramID,
		YearLevel: current.YearLevel,
		Gender:    current.Gender,
		Photo:     current.Photo,
	}
	if upd.FirstName.Present() {
		m.FirstName = strings.TrimSpace(upd.FirstName.Value)
	}
	if upd.LastName.Present() {
		m.LastName = strings.TrimSpace(upd.LastName.Value)
	}
	if upd.ProgramID.Set {
		if upd.ProgramID.Null {
			m.ProgramID = nil
		} else {
			v := upd.ProgramID.Value
			m.ProgramID = &v
		}
	}
	if upd.YearLevel.Present() {
		m.YearLevel = upd.YearLevel.Value
	}
	if upd.Gender.Present() {
		m.Gender = model.Gender(upd.Gender.Value)
	}
	if upd.Photo.Set {
		if upd.Photo.Null {
			m.Photo = ""
		} else {
			m.Photo = upd.Photo.Value
		}
	}
	return m
}
