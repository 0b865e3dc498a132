package imgutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// テスト用のダミー画像（w x h の単色）を作成するヘルパー
func createDummyImageData(t *testing.T, format string, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}

	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "png":
		err = png.Encode(buf, img)
	case "jpeg":
		err = jpeg.Encode(buf, img, nil)
	case "gif":
		err = gif.Encode(buf, img, nil)
	default:
		t.Fatalf("unsupported format: %s", format)
	}
	require.NoError(t, err, "failed to encode dummy image")
	return buf.Bytes()
}

// oversizedPNG は IHDR の寸法だけを w x h に書き換えた PNG を返します。
// ピクセルデータは 1x1 分しか持たないため、デコードまで進むと失敗します。
func oversizedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := createDummyImageData(t, "png", 1, 1, color.Black)
	require.Equal(t, "IHDR", string(data[12:16]))

	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, int(w), cfg.Width)
	return data
}

func TestCompressToJPEG(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}

	for _, format := range []string{"png", "gif", "jpeg"} {
		t.Run(format+"画像をJPEGに圧縮できること", func(t *testing.T) {
			got, err := CompressToJPEG(createDummyImageData(t, format, 10, 10, red), 75)
			require.NoError(t, err)

			cfg, decoded, err := image.DecodeConfig(bytes.NewReader(got))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", decoded)
			assert.Equal(t, 10, cfg.Width)
		})
	}

	t.Run("不正なデータや空データはエラーを返すこと", func(t *testing.T) {
		_, err := CompressToJPEG([]byte("this is not an image"), 75)
		assert.Error(t, err)
		_, err = CompressToJPEG(nil, 75)
		assert.ErrorIs(t, err, errEmptyImage)
	})

	t.Run("画素数が上限を超える画像はデコード前に拒否すること", func(t *testing.T) {
		_, err := CompressToJPEG(oversizedPNG(t, 20000, 20000), 75)
		assert.ErrorIs(t, err, errImageTooLarge)
	})

	t.Run("透過部分は白になること", func(t *testing.T) {
		got, err := CompressToJPEG(createDummyImageData(t, "png", 8, 8, color.RGBA{}), 90)
		require.NoError(t, err)

		img, _, err := image.Decode(bytes.NewReader(got))
		require.NoError(t, err)
		r, g, b, _ := img.At(4, 4).RGBA()
		assert.Greater(t, r>>8, uint32(240))
		assert.Greater(t, g>>8, uint32(240))
		assert.Greater(t, b>>8, uint32(240))
	})

	t.Run("範囲外のQualityでも圧縮できること", func(t *testing.T) {
		input := createDummyImageData(t, "png", 10, 10, red)
		for _, q := range []int{-5, 0, 250} {
			got, err := CompressToJPEG(input, q)
			require.NoError(t, err, "quality=%d", q)
			assert.NotEmpty(t, got)
		}
	})

	t.Run("Quality設定によってサイズが変化すること", func(t *testing.T) {
		// 単色だと差が出にくいため、グラデーションで比較する
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		for x := 0; x < 64; x++ {
			for y := 0; y < 64; y++ {
				img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), uint8((x + y) * 2), 255})
			}
		}
		buf := new(bytes.Buffer)
		require.NoError(t, png.Encode(buf, img))

		highQuality, err := CompressToJPEG(buf.Bytes(), 100)
		require.NoError(t, err)
		lowQuality, err := CompressToJPEG(buf.Bytes(), 10)
		require.NoError(t, err)

		assert.Less(t, len(lowQuality), len(highQuality))
	})
}
