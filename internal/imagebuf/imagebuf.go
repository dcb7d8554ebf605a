// Package imagebuf implements the Image buffer data model from spec.md §3:
// a pixel matrix plus a timestamp, a source tag and free-form metadata.
// Ownership transfers to whatever message or component stores it; callers
// that need to keep their own copy must Clone.
package imagebuf

import (
	"errors"
	"time"

	"gocv.io/x/gocv"
)

var (
	// ErrEmpty is returned when an operation is given a zero-dimension
	// or nil-backed image, rejected per spec.md §8's invariant that
	// every constructed image buffer has positive dimensions.
	ErrEmpty = errors.New("imagebuf: empty image")
)

// SourceTag identifies which camera/process produced an Image.
type SourceTag string

const (
	SourceCamera1 SourceTag = "camera1"
	SourceCamera2 SourceTag = "camera2"
)

// Image is the (pixel_matrix, timestamp_µs, source_tag, meta) tuple from
// spec.md §3. Mat is owned by Image once constructed; call Close exactly
// once when the image is no longer needed.
type Image struct {
	Mat         gocv.Mat
	TimestampUs int64
	Source      SourceTag
	Meta        map[string]string
}

// New wraps an already-populated gocv.Mat. It rejects empty mats so every
// constructed Image buffer satisfies the spec.md §8 invariant.
func New(mat gocv.Mat, source SourceTag) (Image, error) {
	if mat.Empty() || mat.Cols() <= 0 || mat.Rows() <= 0 {
		return Image{}, ErrEmpty
	}
	return Image{
		Mat:         mat,
		TimestampUs: time.Now().UnixMicro(),
		Source:      source,
		Meta:        map[string]string{},
	}, nil
}

// Clone deep-copies the backing Mat, giving the caller an independently
// owned Image — the "deep copy on serialize" rule from spec.md §3.
func (img Image) Clone() Image {
	clone := img
	clone.Mat = img.Mat.Clone()
	clone.Meta = make(map[string]string, len(img.Meta))
	for k, v := range img.Meta {
		clone.Meta[k] = v
	}
	return clone
}

// Close releases the backing Mat. Safe to call on a zero-value Image.
func (img *Image) Close() {
	if !img.Mat.Empty() {
		img.Mat.Close()
	}
}

// Valid reports the spec.md §8 invariant: positive dimensions, non-empty
// backing matrix.
func (img Image) Valid() bool {
	return !img.Mat.Empty() && img.Mat.Cols() > 0 && img.Mat.Rows() > 0
}

// EncodePNG serializes img's Mat for the IPC message's image buffer field
// (spec.md §3's "deep copy on serialize" is the wire form of this).
func EncodePNG(img Image) ([]byte, error) {
	if !img.Valid() {
		return nil, ErrEmpty
	}
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img.Mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

// DecodePNG is EncodePNG's inverse, used by the IPC consumer to rebuild an
// Image from a received message's image bytes.
func DecodePNG(data []byte, source SourceTag) (Image, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return Image{}, err
	}
	return New(mat, source)
}

// ToGray converts mat to single-channel grayscale, the format the
// motion-detection stage operates on.
func ToGray(mat gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
	return gray
}
