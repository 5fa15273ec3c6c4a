package overlay

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	xdraw "golang.org/x/image/draw"
)

// FrameOrientation extracts the EXIF orientation tag from encoded JPEG
// data. Frames without EXIF report the identity orientation 1.
func FrameOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return v
}

// DecodeFrame decodes an encoded frame and normalizes its EXIF orientation
// so the compositor always works on an upright bitmap.
func DecodeFrame(data []byte) (image.Image, error) {
	orientation := FrameOrientation(data)

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	if orientation != 1 {
		img = normalizeOrientation(img, orientation)
	}
	return img, nil
}

func normalizeOrientation(img image.Image, orientation int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	set := func(dst *image.RGBA, mapXY func(x, y int) (int, int)) image.Image {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dx, dy := mapXY(x, y)
				dst.Set(dx, dy, img.At(bounds.Min.X+x, bounds.Min.Y+y))
			}
		}
		return dst
	}

	switch orientation {
	case 2: // flip horizontal
		return set(image.NewRGBA(image.Rect(0, 0, w, h)), func(x, y int) (int, int) { return w - 1 - x, y })
	case 3: // rotate 180
		return set(image.NewRGBA(image.Rect(0, 0, w, h)), func(x, y int) (int, int) { return w - 1 - x, h - 1 - y })
	case 4: // flip vertical
		return set(image.NewRGBA(image.Rect(0, 0, w, h)), func(x, y int) (int, int) { return x, h - 1 - y })
	case 5: // transpose
		return set(image.NewRGBA(image.Rect(0, 0, h, w)), func(x, y int) (int, int) { return y, x })
	case 6: // rotate 90 clockwise
		return set(image.NewRGBA(image.Rect(0, 0, h, w)), func(x, y int) (int, int) { return h - 1 - y, x })
	case 7: // transverse
		return set(image.NewRGBA(image.Rect(0, 0, h, w)), func(x, y int) (int, int) { return h - 1 - y, w - 1 - x })
	case 8: // rotate 90 counter-clockwise
		return set(image.NewRGBA(image.Rect(0, 0, h, w)), func(x, y int) (int, int) { return y, w - 1 - x })
	default:
		return img
	}
}

// Scale fits an image inside maxWidth by maxHeight, preserving aspect ratio.
// Images already within the bounds are returned unchanged.
func Scale(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= maxWidth && h <= maxHeight {
		return img
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}

	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

// CropToAspect center-crops an image to the given ratio. Images already at
// the ratio, or a non-positive ratio, are returned unchanged.
func CropToAspect(img image.Image, ratioW, ratioH int) image.Image {
	if img == nil || ratioW <= 0 || ratioH <= 0 {
		return img
	}
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w*ratioH == h*ratioW {
		return img
	}

	cropW, cropH := w, h
	if w*ratioH > h*ratioW {
		cropW = h * ratioW / ratioH
	} else {
		cropH = w * ratioH / ratioW
	}

	src := image.Pt(bounds.Min.X+(w-cropW)/2, bounds.Min.Y+(h-cropH)/2)
	dst := image.NewRGBA(image.Rect(0, 0, cropW, cropH))
	xdraw.Draw(dst, dst.Bounds(), img, src, xdraw.Src)
	return dst
}
