package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"multicam/internal/settings"
)

// Repository はカメラごとの永続化を担う
type Repository interface {
	// LoadSettings は保存済みの設定を返す。未保存なら nil
	LoadSettings(ctx context.Context, cameraID string) (*settings.CameraSettings, error)
	// SaveSettings は設定を保存する
	SaveSettings(ctx context.Context, cameraID string, s settings.CameraSettings) error
	// LoadName は保存済みの表示名を返す。未保存なら空文字列
	LoadName(ctx context.Context, cameraID string) (string, error)
	// SaveName は表示名を保存する
	SaveName(ctx context.Context, cameraID, name string) error
}

// Open はSQLiteデータベースを開く
// ":memory:" の場合も同じデータベースを共有するよう接続を1本に制限する
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("データベースを開けません: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースに接続できません: %w", err)
	}
	return db, nil
}

// SQLiteRepository は Repository のSQLite実装
type SQLiteRepository struct {
	db     *sql.DB
	limits settings.Limits
}

// NewSQLiteRepository はテーブルを作成してリポジトリを返す
// limits は読み込み時の再検証に使う
func NewSQLiteRepository(db *sql.DB, limits settings.Limits) (*SQLiteRepository, error) {
	repo := &SQLiteRepository{db: db, limits: limits}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("テーブルの作成に失敗: %w", err)
	}
	return repo, nil
}

func (r *SQLiteRepository) createTables() error {
	createCamerasTable := `
	CREATE TABLE IF NOT EXISTS cameras (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		settings_json TEXT,
		updated_at TEXT NOT NULL
	);`

	_, err := r.db.Exec(createCamerasTable)
	return err
}

// LoadSettings は保存済みの設定を読み込み、再検証して返す
func (r *SQLiteRepository) LoadSettings(ctx context.Context, cameraID string) (*settings.CameraSettings, error) {
	query := `SELECT settings_json FROM cameras WHERE id = ?`

	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, query, cameraID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("設定の読み込みに失敗 (%s): %w", cameraID, err)
	}
	if !raw.Valid {
		return nil, nil
	}

	var s settings.CameraSettings
	if err := json.Unmarshal([]byte(raw.String), &s); err != nil {
		return nil, fmt.Errorf("保存済み設定の解析に失敗 (%s): %w", cameraID, err)
	}
	validated, err := r.limits.Validate(s)
	if err != nil {
		return nil, fmt.Errorf("保存済み設定が無効です (%s): %w", cameraID, err)
	}
	return &validated, nil
}

// SaveSettings は設定を保存する。表示名は変更しない
func (r *SQLiteRepository) SaveSettings(ctx context.Context, cameraID string, s settings.CameraSettings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("設定のシリアライズに失敗: %w", err)
	}

	query := `
	INSERT INTO cameras (id, settings_json, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET settings_json = excluded.settings_json, updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, cameraID, string(data), timeToString(time.Now())); err != nil {
		return fmt.Errorf("設定の保存に失敗 (%s): %w", cameraID, err)
	}
	return nil
}

// LoadName は保存済みの表示名を返す
func (r *SQLiteRepository) LoadName(ctx context.Context, cameraID string) (string, error) {
	query := `SELECT display_name FROM cameras WHERE id = ?`

	var name string
	err := r.db.QueryRowContext(ctx, query, cameraID).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("表示名の読み込みに失敗 (%s): %w", cameraID, err)
	}
	return name, nil
}

// SaveName は表示名を保存する。設定は変更しない
func (r *SQLiteRepository) SaveName(ctx context.Context, cameraID, name string) error {
	query := `
	INSERT INTO cameras (id, display_name, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name, updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, cameraID, name, timeToString(time.Now())); err != nil {
		return fmt.Errorf("表示名の保存に失敗 (%s): %w", cameraID, err)
	}
	return nil
}

func timeToString(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
