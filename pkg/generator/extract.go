package generator

import (
	"regexp"
	"strings"

	"github.com/shouni/gemini-tryon-kit/pkg/utils"
	"google.golang.org/genai"
)

var (
	strictTokenPattern  = regexp.MustCompile(`data:image/png;base64,[A-Za-z0-9+/=]+`)
	lenientTokenPattern = regexp.MustCompile(`data:image/(?:png|jpeg);base64,[A-Za-z0-9+/=]+`)
)

// Classify は応答を形ごとに判定し、画像を data URI として取り出します。
func Classify(resp *genai.GenerateContentResponse, mode Mode) Extraction {
	switch mode {
	case ModeStrict:
		if uri, ok := findValidToken(strictTokenPattern, ResponseText(resp)); ok {
			return Extraction{Shape: ShapeTextToken, DataURI: uri}
		}
	default:
		if blob := firstInlineData(resp); blob != nil {
			mimeType := blob.MIMEType
			if mimeType == "" {
				mimeType = defaultInlineMimeType
			}
			return Extraction{Shape: ShapeInlineData, DataURI: utils.EncodeDataURI(mimeType, blob.Data)}
		}
		if uri := lenientTokenPattern.FindString(ResponseText(resp)); uri != "" {
			return Extraction{Shape: ShapeTextToken, DataURI: uri}
		}
	}
	return Extraction{Shape: ShapeNone}
}

// findValidToken は base64 として正しく復号できる最初のトークンを返します。
func findValidToken(pattern *regexp.Regexp, text string) (string, bool) {
	for _, token := range pattern.FindAllString(text, -1) {
		if _, _, err := utils.DecodeDataURI(token); err == nil {
			return token, true
		}
	}
	return "", false
}

// firstCandidate は最初の候補 (Candidate) のみを返します。2件目以降は利用しません。
func firstCandidate(resp *genai.GenerateContentResponse) *genai.Candidate {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	return resp.Candidates[0]
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	candidate := firstCandidate(resp)
	if candidate == nil || candidate.Content == nil {
		return nil
	}
	for _, part := range candidate.Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData
		}
	}
	return nil
}

// ResponseText は最初の候補のテキストパーツを連結して返します。
func ResponseText(resp *genai.GenerateContentResponse) string {
	candidate := firstCandidate(resp)
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// FinishReason は最初の候補の終了理由を返します。候補が無い場合は空文字です。
func FinishReason(resp *genai.GenerateContentResponse) string {
	if candidate := firstCandidate(resp); candidate != nil {
		return string(candidate.FinishReason)
	}
	return ""
}
