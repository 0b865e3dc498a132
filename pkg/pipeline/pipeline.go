package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
	"github.com/shouni/gemini-tryon-kit/pkg/imgutil"
	"github.com/shouni/gemini-tryon-kit/pkg/ingest"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout はリクエスト全体の期限です。
	DefaultTimeout = 20 * time.Second
	// DefaultFallbackProductURL は商品画像が得られない場合に使う組み込みの画像です。
	DefaultFallbackProductURL = "https://images.unsplash.com/photo-1503341455253-b2e723bb3dbb?w=800&auto=format&fit=crop"

	userImageField = "userImage"
)

// Stage は最終画像を作成したステージです。
type Stage string

const (
	StageGenerated   Stage = "generated"
	StageOverlay     Stage = "overlay"
	StagePlaceholder Stage = "placeholder"
)

// Upload はアップロードされたファイルです。
type Upload struct {
	Data        []byte
	ContentType string
}

// Request は試着リクエストです。
type Request struct {
	UserImage       *Upload
	ProductImage    *Upload
	ProductImageURL string
	Product         domain.ProductDescriptor
}

// Outcome はパイプラインの結果です。
type Outcome struct {
	Result domain.TryOnResult
	Stage  Stage
}

// Pipeline は取り込み・画像生成チェーン・解析をまとめて実行します。
type Pipeline struct {
	ingester    ImageIngester
	generator   ImageGenerator
	compositor  ImageCompositor
	analyzer    FitAnalyzer
	fallbackURL string
	timeout     time.Duration
}

// Option は Pipeline の設定を変更します。
type Option func(*Pipeline)

// WithTimeout はリクエスト全体の期限を設定します。
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithFallbackProductURL は組み込みの商品画像 URL を設定します。
func WithFallbackProductURL(rawURL string) Option {
	return func(p *Pipeline) {
		if rawURL != "" {
			p.fallbackURL = rawURL
		}
	}
}

// New は依存関係を注入して Pipeline を初期化します。
func New(ingester ImageIngester, generator ImageGenerator, compositor ImageCompositor, analyzer FitAnalyzer, opts ...Option) (*Pipeline, error) {
	if ingester == nil {
		return nil, fmt.Errorf("ingester is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if compositor == nil {
		return nil, fmt.Errorf("compositor is required")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	p := &Pipeline{
		ingester:    ingester,
		generator:   generator,
		compositor:  compositor,
		analyzer:    analyzer,
		fallbackURL: DefaultFallbackProductURL,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run はリクエストを処理します。
// ユーザー画像の取り込みに成功した場合、Result.Image は必ず nil 以外になります。
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, error) {
	if req.UserImage == nil || len(req.UserImage.Data) == 0 {
		return nil, &domain.MissingInputError{Field: userImageField}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	user, err := p.ingester.Ingest(ctx, ingest.FileSource{Data: req.UserImage.Data, ContentType: req.UserImage.ContentType})
	if err != nil {
		return nil, p.failure(ctx, err)
	}

	product, err := p.ingester.First(ctx, p.productCandidates(req)...)
	if err != nil {
		return nil, p.failure(ctx, err)
	}

	var (
		image    string
		stage    Stage
		analysis domain.Analysis
		g        errgroup.Group
	)
	// 各段は内部で失敗を吸収するため、返るのは期限切れやキャンセルだけです。
	g.Go(func() error {
		image, stage = p.renderImage(ctx, user, product, req.Product)
		return ctx.Err()
	})
	g.Go(func() error {
		analysis = p.analyzer.Analyze(ctx, user, product, req.Product)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, p.failure(ctx, err)
	}

	slog.InfoContext(ctx, "試着結果を返却します", "stage", stage, "has_confidence", analysis.Confidence != nil)
	return &Outcome{
		Result: domain.TryOnResult{Image: &image, Analysis: analysis},
		Stage:  stage,
	}, nil
}

// renderImage は 生成 → 合成 → プレースホルダー の順に実行し、最初に成功した結果を返します。
func (p *Pipeline) renderImage(ctx context.Context, user, product domain.ImageAsset, desc domain.ProductDescriptor) (string, Stage) {
	if uri, ok := p.generator.Generate(ctx, user, product, desc); ok {
		return uri, StageGenerated
	}
	if uri, ok := p.compositor.Composite(ctx, user, product); ok {
		return uri, StageOverlay
	}
	slog.WarnContext(ctx, "生成と合成の両方に失敗したためプレースホルダーを返します")
	return imgutil.Placeholder(), StagePlaceholder
}

func (p *Pipeline) productCandidates(req Request) []ingest.Source {
	var candidates []ingest.Source
	if req.ProductImage != nil && len(req.ProductImage.Data) > 0 {
		candidates = append(candidates, ingest.FileSource{Data: req.ProductImage.Data, ContentType: req.ProductImage.ContentType})
	}
	if req.ProductImageURL != "" {
		candidates = append(candidates, ingest.URLSource{URL: req.ProductImageURL})
	}
	return append(candidates, ingest.URLSource{URL: p.fallbackURL})
}

// failure は期限超過を TimeoutError に置き換えます。
func (p *Pipeline) failure(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.TimeoutError{Err: err}
	}
	return err
}
