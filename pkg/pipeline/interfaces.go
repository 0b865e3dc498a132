package pipeline

import (
	"context"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
	"github.com/shouni/gemini-tryon-kit/pkg/ingest"
)

// ImageIngester は取り込み元を ImageAsset に正規化します。
type ImageIngester interface {
	Ingest(ctx context.Context, src ingest.Source) (domain.ImageAsset, error)
	First(ctx context.Context, candidates ...ingest.Source) (domain.ImageAsset, error)
}

// ImageGenerator は生成モデルによる試着画像の作成を試みます。
type ImageGenerator interface {
	Generate(ctx context.Context, user, product domain.ImageAsset, desc domain.ProductDescriptor) (string, bool)
}

// ImageCompositor は決定的な合成フォールバックです。
type ImageCompositor interface {
	Composite(ctx context.Context, user, product domain.ImageAsset) (string, bool)
}

// FitAnalyzer はフィット・スタイル解析を行います。
type FitAnalyzer interface {
	Analyze(ctx context.Context, user, product domain.ImageAsset, desc domain.ProductDescriptor) domain.Analysis
}
