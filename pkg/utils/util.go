package utils

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const dataURIBase64Marker = ";base64,"

// EncodeDataURI は、バイト列を data:<mime>;base64,<payload> 形式に変換します。
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + dataURIBase64Marker + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI は、base64 形式の data URI を MIME タイプとバイト列に分解します。
// ペイロードが正しい base64 でない場合はエラーを返します。
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("data URI ではありません")
	}
	mimeType, payload, ok := strings.Cut(rest, dataURIBase64Marker)
	if !ok || mimeType == "" {
		return "", nil, fmt.Errorf("base64 data URI の形式が不正です")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("base64 デコード失敗: %w", err)
	}
	return mimeType, data, nil
}
