package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// ErrEmptyCanvas は何も描画されていないキャンバスをエンコードしようとした
var ErrEmptyCanvas = errors.New("キャンバスに描画されていません")

// Canvas はオフスクリーンの描画面
type Canvas struct {
	img *image.RGBA
}

// NewCanvas は空のキャンバスを作成する
func NewCanvas() *Canvas {
	return &Canvas{}
}

// Width はキャンバスの幅を返す
func (c *Canvas) Width() int {
	if c.img == nil {
		return 0
	}
	return c.img.Bounds().Dx()
}

// Height はキャンバスの高さを返す
func (c *Canvas) Height() int {
	if c.img == nil {
		return 0
	}
	return c.img.Bounds().Dy()
}

// DrawFrame はJPEGフレームをデコードし、キャンバスをフレームの解像度に合わせてから描画する
func (c *Canvas) DrawFrame(frame []byte) error {
	src, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return fmt.Errorf("JPEG デコードに失敗: %w", err)
	}

	bounds := src.Bounds()
	if c.img == nil || c.img.Bounds().Size() != bounds.Size() {
		c.img = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	}

	draw.Copy(c.img, image.Point{}, src, bounds, draw.Src, nil)
	return nil
}

// ToBlob はキャンバスの内容を指定形式でエンコードする
// mimeType が空の場合はPNGになる
func (c *Canvas) ToBlob(mimeType string) (Blob, error) {
	if c.img == nil {
		return Blob{}, ErrEmptyCanvas
	}

	var buf bytes.Buffer
	switch mimeType {
	case "", "image/png":
		mimeType = "image/png"
		if err := png.Encode(&buf, c.img); err != nil {
			return Blob{}, fmt.Errorf("PNG エンコードに失敗: %w", err)
		}
	case "image/jpeg":
		if err := jpeg.Encode(&buf, c.img, &jpeg.Options{Quality: 92}); err != nil {
			return Blob{}, fmt.Errorf("JPEG エンコードに失敗: %w", err)
		}
	default:
		return Blob{}, fmt.Errorf("%w: %s", ErrNotSupported, mimeType)
	}

	return Blob{Data: buf.Bytes(), Type: mimeType}, nil
}
