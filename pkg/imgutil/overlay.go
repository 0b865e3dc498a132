package imgutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
	"github.com/shouni/gemini-tryon-kit/pkg/utils"
	"golang.org/x/image/draw"
)

const (
	// OverlayWidthRatio はユーザー画像の幅に対する商品画像の幅の比率です。
	OverlayWidthRatio = 0.6
	// OverlayTopRatio はユーザー画像の高さに対する商品画像上端の位置です。
	OverlayTopRatio = 0.25
	// OverlayOpacity は商品レイヤーの不透明度です。
	OverlayOpacity = 0.9
)

// Overlay は商品画像をユーザー画像の上に合成し、PNG としてエンコードします。
func Overlay(userData, productData []byte) ([]byte, error) {
	base, err := decode(userData)
	if err != nil {
		return nil, fmt.Errorf("ユーザー画像のデコード失敗: %w", err)
	}
	layer, err := decode(productData)
	if err != nil {
		return nil, fmt.Errorf("商品画像のデコード失敗: %w", err)
	}

	bb, lb := base.Bounds(), layer.Bounds()

	w := max(1, int(math.Round(float64(bb.Dx())*OverlayWidthRatio)))
	h := max(1, int(math.Round(float64(lb.Dy())*float64(w)/float64(lb.Dx()))))

	canvas := image.NewRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
	draw.Draw(canvas, canvas.Bounds(), base, bb.Min, draw.Src)

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), layer, lb, draw.Src, nil)

	x := (bb.Dx() - w) / 2
	y := int(math.Round(float64(bb.Dy()) * OverlayTopRatio))
	dst := image.Rect(x, y, x+w, y+h)
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(255 * OverlayOpacity))})
	draw.DrawMask(canvas, dst, scaled, image.Point{}, mask, image.Point{}, draw.Over)

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, canvas); err != nil {
		return nil, fmt.Errorf("PNGエンコード失敗: %w", err)
	}
	return buf.Bytes(), nil
}

// Compositor は生成に失敗した場合の決定的な合成フォールバックです。
type Compositor struct{}

// NewCompositor は Compositor を返します。
func NewCompositor() *Compositor {
	return &Compositor{}
}

// Composite は2枚の画像を合成して PNG の data URI を返します。
// デコード等に失敗した場合はログを残して false を返します。
func (c *Compositor) Composite(ctx context.Context, user, product domain.ImageAsset) (string, bool) {
	if err := ctx.Err(); err != nil {
		slog.WarnContext(ctx, "合成をスキップしました", "stage", "overlay", "error", err)
		return "", false
	}
	out, err := Overlay(user.Data, product.Data)
	if err != nil {
		slog.WarnContext(ctx, "オーバーレイ合成に失敗しました。プレースホルダーへ進みます", "stage", "overlay", "error", err)
		return "", false
	}
	return utils.EncodeDataURI("image/png", out), true
}
