package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Seed は開発・デモ用のサンプルデータを投入する。
// 既存の行とコードまたはIDが衝突する場合は挿入をスキップするため、
// 繰り返し実行しても安全。
func Seed(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	units := []struct {
		code, name string
	}{
		{"ENG", "Engineering"},
		{"SCI", "Sciences"},
		{"BUS", "Business"},
	}
	for _, u := range units {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO units (code, name) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			u.code, u.name,
		); err != nil {
			return fmt.Errorf("failed to seed unit %s: %w", u.code, err)
		}
	}

	programs := []struct {
		unitCode, code, name string
	}{
		{"ENG", "BSCE", "BS Computer Engineering"},
		{"ENG", "BSEE", "BS Electrical Engineering"},
		{"SCI", "BSBIO", "BS Biology"},
		{"BUS", "BSBA", "BS Business Administration"},
	}
	for _, p := range programs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO programs (unit_id, code, name)
			 SELECT id, $2, $3 FROM units WHERE lower(code) = lower($1)
			 ON CONFLICT DO NOTHING`,
			p.unitCode, p.code, p.name,
		); err != nil {
			return fmt.Errorf("failed to seed program %s: %w", p.code, err)
		}
	}

	members := []struct {
		id, firstName, lastName, programCode string
		yearLevel                            int
		gender                               string
	}{
		{"2024-0001", "Taro", "Yamada", "BSCE", 1, "Male"},
		{"2024-0002", "Hanako", "Sato", "BSEE", 2, "Female"},
		{"2023-0101", "Kenji", "Suzuki", "BSBIO", 3, "Male"},
		{"2022-0042", "Yuki", "Tanaka", "BSBA", 4, "Other"},
	}
	for _, m := range members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO members (id, first_name, last_name, program_id, year_level, gender)
			 SELECT $1, $2, $3, id, $5, $6 FROM programs WHERE lower(code) = lower($4)
			 ON CONFLICT DO NOTHING`,
			m.id, m.firstName, m.lastName, m.programCode, m.yearLevel, m.gender,
		); err != nil {
			return fmt.Errorf("failed to seed member %s: %w", m.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	return nil
}
