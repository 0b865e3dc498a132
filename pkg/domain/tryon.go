package domain

// Size は推奨サイズの候補です。
type Size string

const (
	SizeXS      Size = "XS"
	SizeS       Size = "S"
	SizeM       Size = "M"
	SizeL       Size = "L"
	SizeXL      Size = "XL"
	SizeXXL     Size = "XXL"
	SizeNumeric Size = "Numeric"
)

// Sizes はプロンプトに列挙するサイズの一覧です。
var Sizes = []Size{SizeXS, SizeS, SizeM, SizeL, SizeXL, SizeXXL, SizeNumeric}

// Analysis はフィット・スタイル解析の結果です。
// 解決できなかった項目は nil のまま残り、JSON では null になります。
type Analysis struct {
	RecommendedSize *string `json:"recommendedSize"`
	FitNotes        *string `json:"fitNotes"`
	StyleNotes      *string `json:"styleNotes"`
	Confidence      *int    `json:"confidence"` // 0〜100
}

// TryOnResult は試着画像と解析結果を統合したレスポンスです。
type TryOnResult struct {
	Image *string `json:"image"`
	Analysis
}
