package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
	"google.golang.org/genai"
)

// TryOnGenerator は、生成モデルを使って試着画像を作る最初のステージです。
type TryOnGenerator struct {
	aiClient           ContentGenerator
	model              string
	mode               Mode
	compressionQuality int
}

// Option は TryOnGenerator の設定を変更します。
type Option func(*TryOnGenerator)

// WithMode は応答の抽出方式を設定します。
func WithMode(mode Mode) Option {
	return func(g *TryOnGenerator) { g.mode = mode }
}

// WithCompressionQuality は送信前の JPEG 圧縮品質を設定します。0 で無効です。
func WithCompressionQuality(quality int) Option {
	return func(g *TryOnGenerator) { g.compressionQuality = quality }
}

// NewTryOnGenerator は TryOnGenerator を初期化します。
func NewTryOnGenerator(aiClient ContentGenerator, model string, opts ...Option) (*TryOnGenerator, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (ContentGenerator) is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	g := &TryOnGenerator{
		aiClient: aiClient,
		model:    model,
		mode:     ModeLenient,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate は試着画像の生成を試みます。
// 失敗や画像が得られなかった場合はログを残して false を返し、エラーは返しません。
func (g *TryOnGenerator) Generate(ctx context.Context, user, product domain.ImageAsset, desc domain.ProductDescriptor) (string, bool) {
	contents := BuildContents(BuildTryOnPrompt(desc, g.mode), g.compressionQuality, user, product)

	slog.InfoContext(ctx, "Geminiに試着画像の生成をリクエストします", "model", g.model, "mode", g.mode)
	resp, err := g.aiClient.GenerateContent(ctx, g.model, contents, g.config())
	if err != nil {
		slog.WarnContext(ctx, "試着画像の生成に失敗しました。フォールバックへ進みます",
			"stage", "generate", "error", &domain.ModelInvocationError{Model: g.model, Err: err})
		return "", false
	}

	extraction := Classify(resp, g.mode)
	if extraction.Shape == ShapeNone {
		slog.WarnContext(ctx, "応答から画像を抽出できませんでした。フォールバックへ進みます",
			"stage", "generate",
			"finish_reason", FinishReason(resp),
			"error", &domain.ModelParseError{Reason: "no image in response"})
		return "", false
	}

	slog.InfoContext(ctx, "試着画像を抽出しました", "shape", extraction.Shape.String())
	return extraction.DataURI, true
}

func (g *TryOnGenerator) config() *genai.GenerateContentConfig {
	if g.mode == ModeStrict {
		return &genai.GenerateContentConfig{}
	}
	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
}
