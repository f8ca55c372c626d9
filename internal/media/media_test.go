package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/gabriel-vasile/mimetype"
)

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("JPEG encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestNewBlob(t *testing.T) {
	parts := []Blob{
		{Data: []byte("abc")},
		{Data: nil},
		{Data: []byte("de")},
	}

	blob := NewBlob(parts, "video/webm")
	if string(blob.Data) != "abcde" {
		t.Errorf("Expected concatenation, got %q", blob.Data)
	}
	if blob.Size() != 5 || blob.Type != "video/webm" {
		t.Errorf("Unexpected blob: size=%d type=%s", blob.Size(), blob.Type)
	}

	empty := NewBlob(nil, "video/webm")
	if empty.Size() != 0 {
		t.Errorf("Expected empty blob, got %d bytes", empty.Size())
	}
}

func TestCanvas_DrawFrameAndToBlob(t *testing.T) {
	canvas := NewCanvas()

	if _, err := canvas.ToBlob("image/png"); !errors.Is(err, ErrEmptyCanvas) {
		t.Fatalf("Expected ErrEmptyCanvas, got %v", err)
	}

	if err := canvas.DrawFrame(testJPEG(t, 64, 48)); err != nil {
		t.Fatalf("DrawFrame failed: %v", err)
	}
	if canvas.Width() != 64 || canvas.Height() != 48 {
		t.Errorf("Expected 64x48 canvas, got %dx%d", canvas.Width(), canvas.Height())
	}

	blob, err := canvas.ToBlob("image/png")
	if err != nil {
		t.Fatalf("ToBlob failed: %v", err)
	}
	if blob.Type != "image/png" {
		t.Errorf("Expected image/png, got %s", blob.Type)
	}
	if !mimetype.Detect(blob.Data).Is("image/png") {
		t.Errorf("Encoded data is not PNG: %s", mimetype.Detect(blob.Data))
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(blob.Data))
	if err != nil {
		t.Fatalf("PNG decode failed: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 48 {
		t.Errorf("Expected 64x48 PNG, got %dx%d", cfg.Width, cfg.Height)
	}

	// 解像度が変わるとキャンバスも追従する
	if err := canvas.DrawFrame(testJPEG(t, 32, 32)); err != nil {
		t.Fatalf("DrawFrame failed: %v", err)
	}
	if canvas.Width() != 32 || canvas.Height() != 32 {
		t.Errorf("Expected 32x32 canvas, got %dx%d", canvas.Width(), canvas.Height())
	}
}

func TestCanvas_Errors(t *testing.T) {
	canvas := NewCanvas()

	if err := canvas.DrawFrame([]byte("not a jpeg")); err == nil {
		t.Error("Expected decode error")
	}

	if err := canvas.DrawFrame(testJPEG(t, 8, 8)); err != nil {
		t.Fatalf("DrawFrame failed: %v", err)
	}
	if _, err := canvas.ToBlob("image/gif"); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Expected ErrNotSupported, got %v", err)
	}

	blob, err := canvas.ToBlob("")
	if err != nil || blob.Type != "image/png" {
		t.Errorf("Expected PNG by default, got %s (%v)", blob.Type, err)
	}
}

func TestIsTypeSupported(t *testing.T) {
	testCases := map[string]bool{
		"video/webm;codecs=vp9":     true,
		"video/webm;codecs=\"vp8\"": true,
		"video/webm":                true,
		"video/webm;codecs=h264":    false,
		"video/mp4":                 false,
		"":                          false,
	}

	for mimeType, want := range testCases {
		if got := IsTypeSupported(mimeType); got != want {
			t.Errorf("IsTypeSupported(%q) = %v, want %v", mimeType, got, want)
		}
	}
}
