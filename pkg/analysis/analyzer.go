package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
	"github.com/shouni/gemini-tryon-kit/pkg/generator"
	"google.golang.org/genai"
)

const responseMIMEType = "application/json"

// Analyzer は構造化出力モードでフィット・スタイル解析を依頼します。
type Analyzer struct {
	aiClient           generator.ContentGenerator
	model              string
	compressionQuality int
}

// NewAnalyzer は Analyzer を初期化します。compressionQuality が 0 なら画像を圧縮しません。
func NewAnalyzer(aiClient generator.ContentGenerator, model string, compressionQuality int) (*Analyzer, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (ContentGenerator) is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &Analyzer{
		aiClient:           aiClient,
		model:              model,
		compressionQuality: compressionQuality,
	}, nil
}

// BuildPrompt は JSON のみを返すよう指示するプロンプトを組み立てます。
func BuildPrompt(desc domain.ProductDescriptor) string {
	sizes := make([]string, len(domain.Sizes))
	for i, s := range domain.Sizes {
		sizes[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join([]string{
		"You are a concise fit and style expert.",
		"Given the user's photo and the clothing product, return JSON only with keys:",
		"recommendedSize: one of [" + strings.Join(sizes, ",") + "]",
		"fitNotes: brief sentence about fit (tight/ok/loose),",
		"styleNotes: brief style guidance,",
		"confidence: integer 0-100 representing how confident the recommendation is.",
		"Product: " + generator.ProductDetails(desc),
		"Respond with JSON only, no markdown, no code fences.",
	}, " ")
}

// Analyze は解析を実行します。失敗した場合は全項目 nil の結果を返し、エラーは返しません。
func (a *Analyzer) Analyze(ctx context.Context, user, product domain.ImageAsset, desc domain.ProductDescriptor) domain.Analysis {
	contents := generator.BuildContents(BuildPrompt(desc), a.compressionQuality, user, product)
	config := &genai.GenerateContentConfig{ResponseMIMEType: responseMIMEType}

	resp, err := a.aiClient.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		slog.WarnContext(ctx, "フィット解析の呼び出しに失敗しました",
			"stage", "analysis", "error", &domain.ModelInvocationError{Model: a.model, Err: err})
		return domain.Analysis{}
	}

	result, err := Parse(generator.ResponseText(resp))
	if err != nil {
		slog.WarnContext(ctx, "Failed to parse Gemini JSON", "stage", "analysis", "error", err)
		return domain.Analysis{}
	}
	return result
}
