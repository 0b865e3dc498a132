package generator

import (
	"fmt"
	"strings"
)

const (
	defaultInlineMimeType = "image/png"
)

// Mode は応答から画像を抽出する方式です。
type Mode string

const (
	// ModeStrict は data:image/png;base64 トークンのみを返すよう指示し、テキストから抽出します。
	ModeStrict Mode = "strict"
	// ModeLenient はインライン画像を優先し、無ければテキスト中のトークンを探します。
	ModeLenient Mode = "lenient"
)

// ParseMode は設定値を Mode に変換します。
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStrict:
		return ModeStrict, nil
	case ModeLenient, "":
		return ModeLenient, nil
	default:
		return "", fmt.Errorf("unknown extraction mode %q", s)
	}
}

// Shape は応答の形です。
type Shape int

const (
	ShapeNone Shape = iota
	ShapeInlineData
	ShapeTextToken
)

func (s Shape) String() string {
	switch s {
	case ShapeInlineData:
		return "inline_data"
	case ShapeTextToken:
		return "text_token"
	default:
		return "none"
	}
}

// Extraction は応答の解析結果です。Shape が ShapeNone の場合 DataURI は空です。
type Extraction struct {
	Shape   Shape
	DataURI string
}
