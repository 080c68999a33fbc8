package rendition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"os/exec"

	avifenc "github.com/gen2brain/avif"
	"github.com/disintegration/imaging"
	"github.com/pica-gallery/pica/internal/media"
	"github.com/pica-gallery/pica/internal/parse"
	"github.com/pica-gallery/pica/internal/rendition/ultrahdr"
)

// Codec options configure how Decode renders a rendition.
type Codec struct {
	Parser         *parse.Parser
	UseImageMagick bool
	ImageCodec     string // "jpeg" or "avif"
	PreferUltraHDR bool
}

// gaussianThreshold is the size at or above which the higher-quality (and
// more expensive) Gaussian resampler is used, matching the original
// service's resize quality/performance tradeoff: small thumbnails use the
// cheaper Box filter since resampling artifacts are invisible at that
// scale.
const gaussianThreshold = 512

// Decode resizes the media at path (whose on-disk format is typ) down to
// size on its longest edge, honoring EXIF orientation, and encodes the
// result with the configured codec.
func (c *Codec) Decode(ctx context.Context, path string, typ media.Type, orientation media.Orientation, size int) (data []byte, mime string, err error) {
	if c.UseImageMagick {
		return c.decodeImageMagick(path, size)
	}

	if c.PreferUltraHDR && typ == media.TypeJPEG {
		if rendered, ok, err := c.decodeUltraHDR(path, orientation, size); err != nil {
			return nil, "", err
		} else if ok {
			return rendered, "image/jpeg", nil
		}
	}

	preview, err := c.Parser.Preview(path, typ)
	if err != nil {
		return nil, "", err
	}
	defer preview.Close()

	img, _, err := image.Decode(preview)
	if err != nil {
		return nil, "", fmt.Errorf("rendition: decode %s: %w", path, err)
	}

	img = applyOrientation(img, orientation)

	filter := imaging.Box
	if size >= gaussianThreshold {
		filter = imaging.Gaussian
	}
	resized := imaging.Fit(img, size, size, filter)

	switch c.ImageCodec {
	case "avif":
		var buf bytes.Buffer
		if err := avifenc.Encode(&buf, resized, avifenc.Options{Quality: 60, Speed: 10}); err != nil {
			return nil, "", fmt.Errorf("rendition: avif encode: %w", err)
		}
		return buf.Bytes(), "image/avif", nil
	default:
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 60}); err != nil {
			return nil, "", fmt.Errorf("rendition: jpeg encode: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	}
}

// decodeUltraHDR resizes both halves of an UltraHDR dual-JPEG (the SDR
// primary and its gain-map) independently and re-muxes them, so a
// downscaled rendition still carries HDR metadata. ok is false when the
// source file has no UltraHDR segments, in which case the caller falls
// back to the plain single-JPEG path.
func (c *Codec) decodeUltraHDR(path string, orientation media.Orientation, size int) (data []byte, ok bool, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}

	isHDR, err := ultrahdr.Detect(bytes.NewReader(raw))
	if err != nil || !isHDR {
		return nil, false, nil
	}

	primary, gainmap, err := ultrahdr.Split(raw)
	if err != nil {
		return nil, false, fmt.Errorf("rendition: split ultrahdr: %w", err)
	}

	resizedPrimary, err := c.resizeJPEG(primary, orientation, size)
	if err != nil {
		return nil, false, fmt.Errorf("rendition: resize ultrahdr primary: %w", err)
	}
	resizedGainmap, err := c.resizeJPEG(gainmap, orientation, size/4)
	if err != nil {
		return nil, false, fmt.Errorf("rendition: resize ultrahdr gainmap: %w", err)
	}

	muxed, err := ultrahdr.Mux(resizedPrimary, resizedGainmap, "image/jpeg")
	if err != nil {
		return nil, false, fmt.Errorf("rendition: mux ultrahdr: %w", err)
	}
	return muxed, true, nil
}

// resizeJPEG decodes, orients, resizes and re-encodes a single JPEG byte
// stream, the building block decodeUltraHDR applies to both halves of a
// dual-JPEG pair.
func (c *Codec) resizeJPEG(raw []byte, orientation media.Orientation, size int) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	img = applyOrientation(img, orientation)

	filter := imaging.Box
	if size >= gaussianThreshold {
		filter = imaging.Gaussian
	}
	resized := imaging.Fit(img, size, size, filter)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 60}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// applyOrientation rotates/flips img so its pixel buffer matches EXIF
// orientation 1 (no transform needed on display).
func applyOrientation(img image.Image, o media.Orientation) image.Image {
	switch o {
	case media.OrientationFlipH:
		return imaging.FlipH(img)
	case media.OrientationRotate180:
		return imaging.Rotate180(img)
	case media.OrientationFlipHRotate180:
		return imaging.Rotate180(imaging.FlipH(img))
	case media.OrientationRotate90:
		return imaging.Rotate270(img) // EXIF 6: display needs 90 CW, which is imaging's 270 CCW
	case media.OrientationFlipHRotate90:
		return imaging.Rotate270(imaging.FlipH(img))
	case media.OrientationRotate270:
		return imaging.Rotate90(img)
	case media.OrientationFlipHRotate270:
		return imaging.Rotate90(imaging.FlipH(img))
	default:
		return img
	}
}

// decodeImageMagick shells out to `convert`, used when the operator has no
// Go-native decoder for the source format but does have ImageMagick
// installed.
func (c *Codec) decodeImageMagick(path string, size int) ([]byte, string, error) {
	tmp, err := os.CreateTemp("", "pica-im-*.jpg")
	if err != nil {
		return nil, "", err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	cmd := exec.Command("convert", path,
		"-auto-orient",
		"-resize", fmt.Sprintf("%dx%d", size, size),
		"-quality", "60",
		"-strip",
		"-interlace", "Plane",
		tmpPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, "", fmt.Errorf("rendition: convert failed: %w: %s", err, out)
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, "", err
	}
	return data, "image/jpeg", nil
}
