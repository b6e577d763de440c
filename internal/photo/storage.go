// Package photo は外部オブジェクトストレージ上のメンバー写真を扱う。
// 本システムは写真の中身を読まず、パスの保存と破棄のみを行う。
package photo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/google/uuid"
)

// uploadTimeout はストレージAPIへのリクエストタイムアウト。
const uploadTimeout = 30 * time.Second

// Storage はSupabase互換のオブジェクトストレージクライアント。
// SSRF防止のためsafeurlでラップしたHTTPクライアントを使用する。
type Storage struct {
	baseURL    string
	bucket     string
	serviceKey string
	client     *http.Client
	logger     *slog.Logger
}

// NewStorage はStorageの新しいインスタンスを生成する。
// safeurlにより、プライベートIP、ループバック、リンクローカル、
// メタデータIPへのリクエストが自動的にブロックされる。
func NewStorage(baseURL, bucket, serviceKey string, logger *slog.Logger) *Storage {
	config := safeurl.GetConfigBuilder().
		SetTimeout(uploadTimeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return &Storage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		client:     safeurl.Client(config).Client,
		logger:     logger,
	}
}

// NewObjectKey はアップロード用のオブジェクトキーを生成する。
// 元ファイル名は拡張子だけを引き継ぎ、衝突しないようUUIDで採番する。
func NewObjectKey(memberID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("members/%s/%s%s", memberID, uuid.NewString(), ext)
}

// Upload は写真をアップロードし、保存したオブジェクトキーを返す。
func (s *Storage) Upload(ctx context.Context, key, contentType string, data []byte) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("アップロードリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("写真のアップロードに失敗しました: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("写真のアップロードに失敗しました: status %d", resp.StatusCode)
	}

	return nil
}

// Delete は写真オブジェクトを削除する。
// 呼び出し側はベストエフォートで扱い、失敗してもレコード操作は巻き戻さない。
func (s *Storage) Delete(ctx context.Context, key string) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("削除リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("写真の削除に失敗しました: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// 既に存在しないオブジェクトの削除は成功扱い
	if resp.StatusCode == http.StatusNotFound {
		s.logger.Warn("削除対象の写真が見つかりませんでした", slog.String("key", key))
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("写真の削除に失敗しました: status %d", resp.StatusCode)
	}

	return nil
}

// PublicURL は写真の公開URLを返す。
func (s *Storage) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key)
}
