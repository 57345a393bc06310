// Package imaging prepares captured label photos for transmission to the AI
// proxy. Source images arrive at arbitrary camera resolutions; sending them
// as-is would blow up request payloads and vision-token cost, so the image is
// downscaled to a bounded longest edge and re-encoded as JPEG at a fixed
// quality before upload.
package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// ErrEmptyImage is returned when the input contains no pixel data.
var ErrEmptyImage = errors.New("imaging: empty image payload")

// PrepareJPEG decodes raw, scales it so the longest edge is at most maxEdge
// pixels (aspect ratio preserved; images already within bounds are not
// upscaled), and re-encodes as JPEG at the given quality (1..100).
func PrepareJPEG(raw []byte, maxEdge, quality int) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyImage
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, ErrEmptyImage
	}

	longest := w
	if h > longest {
		longest = h
	}
	if maxEdge > 0 && longest > maxEdge {
		scale := float64(maxEdge) / float64(longest)
		nw := int(float64(w) * scale)
		nh := int(float64(h) * scale)
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		src = dst
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
