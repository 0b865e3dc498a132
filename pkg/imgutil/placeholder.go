package imgutil

// transparentPixelPNG は 1x1 RGBA で完全に透明な PNG です。
const transparentPixelPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAAC0lEQVR42mNgAAIAAAUAAen63NgAAAAASUVORK5CYII="

// Placeholder は 1x1 の完全に透明な PNG の data URI を返します。
// 生成と合成の両方が失敗した場合の最終フォールバックです。
func Placeholder() string {
	return transparentPixelPNG
}
