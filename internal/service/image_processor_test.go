package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/h2non/bimg"

	"github.com/fleveque/scene-finder/internal/model"
)

// createTestPNG generates a small solid-color PNG image in memory.
func createTestPNG(width, height int, c color.Color) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func TestNormalize_DownscalesLargeImage(t *testing.T) {
	processor := NewImageProcessor(100)
	input := model.ImageInput{
		Data:      createTestPNG(400, 200, color.RGBA{R: 255, A: 255}),
		MediaType: "image/png",
	}

	out, err := processor.Normalize(input)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if out.MediaType != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", out.MediaType)
	}

	size, err := bimg.NewImage(out.Data).Size()
	if err != nil {
		t.Fatalf("reading output size: %v", err)
	}
	if size.Width != 100 || size.Height != 50 {
		t.Errorf("expected 100x50, got %dx%d", size.Width, size.Height)
	}
}

func TestNormalize_KeepsSmallImage(t *testing.T) {
	processor := NewImageProcessor(100)
	data := createTestPNG(64, 64, color.RGBA{G: 255, A: 255})
	input := model.ImageInput{Data: data, MediaType: "image/png"}

	out, err := processor.Normalize(input)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if out.MediaType != "image/png" || !bytes.Equal(out.Data, data) {
		t.Error("expected small image to pass through unchanged")
	}
}

func TestNormalize_Disabled(t *testing.T) {
	processor := NewImageProcessor(0)
	input := model.ImageInput{Data: []byte("not an image"), MediaType: "image/png"}

	out, err := processor.Normalize(input)
	if err != nil {
		t.Fatalf("expected no error when disabled, got %v", err)
	}
	if !bytes.Equal(out.Data, input.Data) {
		t.Error("expected data to pass through when disabled")
	}
}

func TestNormalize_InvalidImageKeepsOriginal(t *testing.T) {
	processor := NewImageProcessor(100)
	input := model.ImageInput{Data: []byte("not an image"), MediaType: "image/png"}

	out, err := processor.Normalize(input)
	if err == nil {
		t.Fatal("expected error for undecodable image")
	}
	if !bytes.Equal(out.Data, input.Data) || out.MediaType != input.MediaType {
		t.Error("expected original image to be returned on error")
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
		wantResize   bool
	}{
		{"fits", 800, 600, 1568, 800, 600, false},
		{"exact", 1568, 1000, 1568, 1568, 1000, false},
		{"landscape", 3136, 1568, 1568, 1568, 784, true},
		{"portrait", 1000, 4000, 1000, 250, 1000, true},
		{"sliver", 10000, 1, 100, 100, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, ok := fitWithin(tt.w, tt.h, tt.max)
			if ok != tt.wantResize || w != tt.wantW || h != tt.wantH {
				t.Errorf("fitWithin(%d,%d,%d) = (%d,%d,%v), want (%d,%d,%v)",
					tt.w, tt.h, tt.max, w, h, ok, tt.wantW, tt.wantH, tt.wantResize)
			}
		})
	}
}
