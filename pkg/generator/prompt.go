package generator

import (
	"strings"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
)

var tryOnInstructions = []string{
	"You are a virtual try-on assistant.",
	"First image: the user's full or upper-body photo.",
	"Second image: a clothing product photo (front view).",
	"Create a realistic composite showing the user wearing the product.",
	"Preserve the user's face, skin tone, pose, and background.",
	"Align the garment naturally on the torso without distortion.",
	"Do not change hair, face, or body shape.",
	"Output only the final try-on image.",
}

var strictOutputInstructions = []string{
	"Return ONLY a single data URL string for a PNG image in the format:",
	"`data:image/png;base64,....`",
	"No explanations, no JSON, no markdown.",
}

// BuildTryOnPrompt は試着生成用のプロンプトを組み立てます。
func BuildTryOnPrompt(desc domain.ProductDescriptor, mode Mode) string {
	lines := make([]string, 0, len(tryOnInstructions)+len(strictOutputInstructions)+1)
	lines = append(lines, tryOnInstructions...)
	lines = append(lines, "Product details: "+ProductDetails(desc))
	if mode == ModeStrict {
		lines = append(lines, strictOutputInstructions...)
	}
	return strings.Join(lines, " ")
}
