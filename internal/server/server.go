package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shouni/gemini-tryon-kit/pkg/pipeline"
	"github.com/shouni/gemini-tryon-kit/pkg/product"
)

// DefaultMaxUploadBytes はアップロード1件あたりの上限です。
const DefaultMaxUploadBytes int64 = 10 << 20

// TryOnRunner は試着パイプラインを実行します。
type TryOnRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
}

// ProductResolver は商品ページのメタデータを解決します。
type ProductResolver interface {
	Resolve(ctx context.Context, rawURL string) (product.Metadata, error)
}

// Server は HTTP ハンドラー群です。
type Server struct {
	runner         TryOnRunner
	resolver       ProductResolver
	maxUploadBytes int64
}

// Option は Server の設定を変更します。
type Option func(*Server)

// WithMaxUploadBytes はアップロード1件あたりの上限を設定します。
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// New は依存関係を注入して Server を初期化します。
func New(runner TryOnRunner, resolver ProductResolver, opts ...Option) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	s := &Server{
		runner:         runner,
		resolver:       resolver,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Router はルーティング済みのハンドラーを返します。
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)
	r.HandleFunc("/api/tryon", s.handleTryOn).Methods(http.MethodPost)
	r.HandleFunc("/api/product", s.handleProduct).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}
