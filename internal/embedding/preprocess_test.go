package embedding

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, dir, name string, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPreprocessImage(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "white.png", 64, 48, color.White)

	pixels, err := PreprocessImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(pixels) != 3*clipImageSize*clipImageSize {
		t.Fatalf("pixel count = %d, want %d", len(pixels), 3*clipImageSize*clipImageSize)
	}
	// White pixel in channel 0: (1 - mean) / std.
	want := (1 - clipMean[0]) / clipStd[0]
	if diff := pixels[0] - want; diff > 0.01 || diff < -0.01 {
		t.Errorf("normalized white pixel = %v, want %v", pixels[0], want)
	}
}

func TestPreprocessImage_Missing(t *testing.T) {
	if _, err := PreprocessImage(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("missing file should error")
	}
}

func TestPreprocessImage_NotAnImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.png")
	if err := os.WriteFile(path, []byte("not an image"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := PreprocessImage(path); err == nil {
		t.Error("junk bytes should fail to decode")
	}
}
