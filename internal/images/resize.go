// internal/images/resize.go

package images

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// MaxPhotoDimension bounds the longer side of stored photos
const MaxPhotoDimension = 1600

var encodeFormats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
}

// shrink downscales f in place when it is larger than MaxPhotoDimension.
// GIFs are kept as uploaded so animations survive.
func shrink(f *File) error {
	format, ok := encodeFormats[f.ContentType]
	if !ok {
		return nil
	}

	img, err := imaging.Decode(bytes.NewReader(f.Data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: %s could not be decoded", ErrInvalidImageFormat, f.Filename)
	}
	b := img.Bounds()
	if b.Dx() <= MaxPhotoDimension && b.Dy() <= MaxPhotoDimension {
		return nil
	}

	resized := imaging.Fit(img, MaxPhotoDimension, MaxPhotoDimension, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return fmt.Errorf("failed to encode %s: %w", f.Filename, err)
	}
	f.Data = buf.Bytes()
	return nil
}
