package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
)

// Parse はモデルが返した JSON テキストを Analysis に変換します。
// JSON として解釈できない場合は全項目 nil の Analysis とエラーを返します。
func Parse(text string) (domain.Analysis, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &fields); err != nil {
		return domain.Analysis{}, &domain.ModelParseError{Reason: "invalid analysis JSON", Err: err}
	}

	return domain.Analysis{
		RecommendedSize: stringField(fields, "recommendedSize"),
		FitNotes:        stringField(fields, "fitNotes"),
		StyleNotes:      stringField(fields, "styleNotes"),
		Confidence:      confidenceField(fields, "confidence"),
	}, nil
}

// stripCodeFence は前後の空白と ```json フェンスを取り除きます。
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

func stringField(fields map[string]any, key string) *string {
	s, ok := fields[key].(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// confidenceField は数値または数値文字列を 0〜100 の整数に変換します。
// それ以外の値は nil です。
func confidenceField(fields map[string]any, key string) *int {
	var f float64
	switch v := fields[key].(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(math.Round(min(max(f, 0), 100)))
	return &n
}
