package generator

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
	"github.com/shouni/gemini-tryon-kit/pkg/imgutil"
	"google.golang.org/genai"
)

const defaultProductTitle = "Product"

// BuildContents はテキスト1つと画像群からユーザーロールの単一コンテンツを組み立てます。
// compressionQuality が正の値なら画像を JPEG に圧縮してから添付します。
func BuildContents(text string, compressionQuality int, assets ...domain.ImageAsset) []*genai.Content {
	parts := []*genai.Part{genai.NewPartFromText(text)}
	for _, asset := range assets {
		parts = append(parts, toPart(asset, compressionQuality))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func toPart(asset domain.ImageAsset, compressionQuality int) *genai.Part {
	data, mimeType := asset.Data, asset.MimeType
	if compressionQuality > 0 {
		if compressed, err := imgutil.CompressToJPEG(data, compressionQuality); err == nil {
			data, mimeType = compressed, "image/jpeg"
		}
	}
	if mimeType == "" {
		mimeType = domain.DefaultMimeType
	}
	return &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: mimeType,
			Data:     data,
		},
	}
}

// ProductDetails は商品情報をプロンプト用の1行に整形します。
func ProductDetails(desc domain.ProductDescriptor) string {
	title := strings.TrimSpace(desc.Title)
	if title == "" {
		title = defaultProductTitle
	}
	fields := []string{title}
	if price := strings.TrimSpace(desc.Price); price != "" {
		fields = append(fields, fmt.Sprintf("priced at %s", price))
	}
	if category := strings.TrimSpace(desc.Category); category != "" {
		fields = append(fields, category)
	}
	return strings.Join(fields, " ")
}
