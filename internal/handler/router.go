package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/rosterman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ドメインサービス
	UnitService    UnitServiceInterface
	ProgramService ProgramServiceInterface
	MemberService  MemberServiceInterface

	// 写真ストレージ。未設定のデプロイではnil。
	PhotoStorage PhotoStorageInterface

	// ヘルスチェック用のデータベース接続
	DB Pinger

	// Prometheusスクレイプハンドラーとリクエスト計測ミドルウェア
	MetricsHandler    http.Handler
	MetricsMiddleware func(next http.Handler) http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(General)
//
// 更新系エンドポイント（POST/PUT/DELETE）にはより厳しいレート制限を追加する。
// /health と /metrics はレート制限の外に置く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.MetricsMiddleware != nil {
		r.Use(deps.MetricsMiddleware)
	}

	unitHandler := NewUnitHandler(deps.UnitService)
	programHandler := NewProgramHandler(deps.ProgramService)
	memberHandler := NewMemberHandler(deps.MemberService, deps.PhotoStorage)

	// --- 運用系ルート（レート制限なし） ---
	r.Get("/health", NewHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		mutation := deps.RateLimiter.MutationMiddleware()

		// ユニット管理
		r.Route("/api/units", func(r chi.Router) {
			r.Get("/", unitHandler.List)
			r.With(mutation).Post("/", unitHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", unitHandler.Get)
				r.With(mutation).Put("/", unitHandler.Update)
				r.With(mutation).Delete("/", unitHandler.Delete)

				// GET /api/units/{id}/programs - ユニット別プログラム一覧
				r.Get("/programs", unitHandler.ListPrograms)
			})
		})

		// プログラム管理
		r.Route("/api/programs", func(r chi.Router) {
			r.Get("/", programHandler.List)
			r.With(mutation).Post("/", programHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", programHandler.Get)
				r.With(mutation).Put("/", programHandler.Update)
				r.With(mutation).Delete("/", programHandler.Delete)
			})
		})

		// メンバー管理
		r.Route("/api/members", func(r chi.Router) {
			r.Get("/", memberHandler.List)
			r.With(mutation).Post("/", memberHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", memberHandler.Get)
				r.With(mutation).Put("/", memberHandler.Update)
				r.With(mutation).Delete("/", memberHandler.Delete)

				// 写真管理
				r.With(mutation).Post("/photo", memberHandler.UploadPhoto)
				r.With(mutation).Delete("/photo", memberHandler.DeletePhoto)
			})
		})
	})

	return r
}
