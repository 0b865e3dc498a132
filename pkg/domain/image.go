package domain

import "github.com/shouni/gemini-tryon-kit/pkg/utils"

// DefaultMimeType は Content-Type が不明な画像に割り当てる MIME タイプです。
const DefaultMimeType = "image/jpeg"

// ImageAsset は取り込み済みの画像データです。
// 取り込み後は変更せず、各ステージには値として渡します。
type ImageAsset struct {
	Data     []byte
	MimeType string
}

// DataURI は画像を data:<mime>;base64,<payload> 形式の文字列に変換します。
func (a ImageAsset) DataURI() string {
	mimeType := a.MimeType
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return utils.EncodeDataURI(mimeType, a.Data)
}

// ProductDescriptor は商品情報です。プロンプト組み立てにのみ利用します。
type ProductDescriptor struct {
	Title    string
	Price    string
	Category string
}
