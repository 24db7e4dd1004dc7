package embedding

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// clipImageSize is the square input resolution of the CLIP visual encoder.
const clipImageSize = 224

// CLIP channel statistics used to normalize pixel values.
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// PreprocessImage decodes the image at path (PNG, JPEG, or WEBP), scales it
// to the CLIP input resolution, and returns normalized CHW pixel values
// ready for the visual encoder: length 3*224*224.
func PreprocessImage(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, clipImageSize, clipImageSize))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	pixels := make([]float32, 3*clipImageSize*clipImageSize)
	plane := clipImageSize * clipImageSize
	for y := 0; y < clipImageSize; y++ {
		for x := 0; x < clipImageSize; x++ {
			r, g, b, _ := dst.At(x, y).RGBA()
			i := y*clipImageSize + x
			pixels[i] = (float32(r>>8)/255 - clipMean[0]) / clipStd[0]
			pixels[plane+i] = (float32(g>>8)/255 - clipMean[1]) / clipStd[1]
			pixels[2*plane+i] = (float32(b>>8)/255 - clipMean[2]) / clipStd[2]
		}
	}
	return pixels, nil
}
