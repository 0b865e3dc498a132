package generator

import (
	"context"

	"google.golang.org/genai"
)

// ContentGenerator はマルチモーダルなプロンプトからコンテンツを生成する能力です。
// *genai.Models がこのインターフェースを満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}
