package balldetect

import (
	"errors"
	"image"
	"image/color"
	"sort"
	"time"

	"github.com/chewxy/math32"
	"gocv.io/x/gocv"

	"github.com/pitrac/pitrac-go/internal/imagebuf"
	"github.com/pitrac/pitrac-go/internal/logger"
)

// SearchMode selects which of the three detection strategies spec.md §4.2
// describes to run.
type SearchMode int

const (
	PlacedBall SearchMode = iota
	StrobedBall
	BallAgainstReference
)

// ErrEmptyImage is returned for a nil-backed or zero-dimension frame,
// per spec.md §4.2's "empty image -> fail" error condition.
var ErrEmptyImage = errors.New("balldetect: empty image")

// Params holds the per-mode tunables spec.md §4.2 lists, all sourced from
// the config store (C10); values differ substantially between modes.
type Params struct {
	PreCannyBlurKernel int
	PreCannyBlurFirst  bool // open question from spec.md §9: blur->canny->blur vs canny->blur
	PreHoughBlurKernel int
	CannyLower         float64
	CannyUpper         float64

	IgnoreBandBottomPx int

	HoughDP              float64
	HoughMinDist         float64
	HoughCannyParam1     float64
	HoughMinParam2       float64
	HoughMaxParam2       float64
	HoughParam2Increment float64
	HoughUseGradientAlt  bool

	MinRadiusPx int
	MaxRadiusPx int

	MinReturnedCircles int
	MaxReturnedCircles int

	ExpectedCenter image.Point
	ExpectedRadius float32
}

// DefaultParams returns conservative defaults; production values always
// come from the config store, per mode.
func DefaultParams() Params {
	return Params{
		PreCannyBlurKernel:   5,
		PreCannyBlurFirst:    true,
		PreHoughBlurKernel:   0,
		CannyLower:           50,
		CannyUpper:           150,
		HoughDP:              1.0,
		HoughMinDist:         50,
		HoughCannyParam1:     100,
		HoughMinParam2:       20,
		HoughMaxParam2:       60,
		HoughParam2Increment: 2,
		MinRadiusPx:          5,
		MaxRadiusPx:          200,
		MinReturnedCircles:   1,
		MaxReturnedCircles:   8,
	}
}

// candidate is an intermediate detection before scoring/sorting.
type candidate struct {
	x, y, r float32
	score   float32
}

// Detect runs the spec.md §4.2 seven-step algorithm against one frame and
// returns candidates ranked best-first. reference is nil unless mode is
// BallAgainstReference.
func Detect(img imagebuf.Image, mode SearchMode, p Params, reference *BallPosition) ([]BallPosition, error) {
	if !img.Valid() {
		return nil, ErrEmptyImage
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img.Mat, &gray, gocv.ColorBGRToGray)

	edges := blurCannyBlur(gray, p)
	defer edges.Close()

	blankIgnoreBand(edges, p.IgnoreBandBottomPx)

	circles, method := houghAdaptive(edges, p, mode)
	defer circles.Close()

	candidates := scoreCandidates(circles, img, p, mode, reference)
	if len(candidates) == 0 {
		logger.Log.Warn().Msg("balldetect: no candidates after adaptation")
		return []BallPosition{}, nil
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	now := time.Now().UnixMicro()
	out := make([]BallPosition, 0, len(candidates))
	for _, c := range candidates {
		conf := normalizeScore(c.score)
		pos, err := New(c.x, c.y, c.r, conf, now, method)
		if err != nil {
			continue
		}
		out = append(out, pos)
	}
	return out, nil
}

// blurCannyBlur implements steps 1-3 of spec.md §4.2, including both
// orderings the source carried for pre-Canny blur (spec.md §9 Open
// Question): the spec keeps both, selected by Params.PreCannyBlurFirst.
func blurCannyBlur(gray gocv.Mat, p Params) gocv.Mat {
	work := gray.Clone()
	defer work.Close()

	edges := gocv.NewMat()

	if p.PreCannyBlurFirst {
		blurred := gocv.NewMat()
		defer blurred.Close()
		gaussianBlur(work, &blurred, p.PreCannyBlurKernel)
		gocv.Canny(blurred, &edges, p.CannyLower, p.CannyUpper)
	} else {
		gocv.Canny(work, &edges, p.CannyLower, p.CannyUpper)
	}

	if p.PreHoughBlurKernel > 0 {
		reblurred := gocv.NewMat()
		gaussianBlur(edges, &reblurred, p.PreHoughBlurKernel)
		edges.Close()
		return reblurred
	}

	return edges
}

func gaussianBlur(src gocv.Mat, dst *gocv.Mat, kernel int) {
	if kernel <= 0 {
		src.CopyTo(dst)
		return
	}
	if kernel%2 == 0 {
		kernel++
	}
	gocv.GaussianBlur(src, dst, image.Pt(kernel, kernel), 0, 0, gocv.BorderDefault)
}

// blankIgnoreBand implements step 4: blank out a band at the bottom of the
// frame so Hough never returns a circle centered on equipment below the
// ball.
func blankIgnoreBand(mat gocv.Mat, bandPx int) {
	if bandPx <= 0 || bandPx >= mat.Rows() {
		return
	}
	band := mat.Region(image.Rect(0, mat.Rows()-bandPx, mat.Cols(), mat.Rows()))
	defer band.Close()
	band.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

// houghAdaptive implements step 5: sweep the accumulator threshold between
// MinParam2 and MaxParam2 until the circle count falls within
// [MinReturnedCircles, MaxReturnedCircles].
func houghAdaptive(edges gocv.Mat, p Params, mode SearchMode) (gocv.Mat, MethodTag) {
	method := methodForMode(mode)

	houghMethod := gocv.HoughGradient
	if p.HoughUseGradientAlt {
		houghMethod = gocv.HoughGradientAlt
	}

	best := gocv.NewMat()
	bestCount := -1

	for param2 := p.HoughMinParam2; param2 <= p.HoughMaxParam2; param2 += p.HoughParam2Increment {
		circles := gocv.NewMat()
		gocv.HoughCirclesWithParams(
			edges, &circles, houghMethod,
			p.HoughDP, p.HoughMinDist,
			p.HoughCannyParam1, param2,
			p.MinRadiusPx, p.MaxRadiusPx,
		)

		count := circles.Rows()
		if count >= p.MinReturnedCircles && count <= p.MaxReturnedCircles {
			best.Close()
			return circles, method
		}

		// Keep the closest miss (fewest excess/deficit circles) in case no
		// threshold in the sweep lands inside the target band.
		if bestCount < 0 || closerToBand(count, bestCount, p.MinReturnedCircles, p.MaxReturnedCircles) {
			best.Close()
			best = circles
			bestCount = count
		} else {
			circles.Close()
		}
	}

	return best, method
}

func closerToBand(count, prevBest, min, max int) bool {
	return bandDistance(count, min, max) < bandDistance(prevBest, min, max)
}

func bandDistance(count, min, max int) int {
	if count < min {
		return min - count
	}
	if count > max {
		return count - max
	}
	return 0
}

func methodForMode(mode SearchMode) MethodTag {
	switch mode {
	case StrobedBall:
		return MethodHoughStrobed
	case BallAgainstReference:
		return MethodHoughReference
	default:
		return MethodHoughPlaced
	}
}

// scoreCandidates implements step 6: score by proximity to the search
// center, radius closeness, distance from frame edges, and (if a reference
// ball is given) color distance.
func scoreCandidates(circles gocv.Mat, img imagebuf.Image, p Params, mode SearchMode, reference *BallPosition) []candidate {
	out := make([]candidate, 0, circles.Rows())

	w, h := float32(img.Mat.Cols()), float32(img.Mat.Rows())
	marginX, marginY := w*0.10, h*0.10

	var refColor color.RGBA
	haveRefColor := false
	if reference != nil && mode == BallAgainstReference {
		refColor = sampleColor(img.Mat, reference.XPx, reference.YPx)
		haveRefColor = true
	}

	for i := 0; i < circles.Rows(); i++ {
		v := circles.GetVecfAt(i, 0)
		if len(v) < 3 {
			continue
		}
		x, y, r := v[0], v[1], v[2]

		var score float32 = 1.0

		if p.ExpectedRadius > 0 {
			radiusDelta := math32.Abs(r - p.ExpectedRadius)
			score -= radiusDelta / p.ExpectedRadius
		}

		if p.ExpectedCenter.X != 0 || p.ExpectedCenter.Y != 0 {
			dx := x - float32(p.ExpectedCenter.X)
			dy := y - float32(p.ExpectedCenter.Y)
			dist := math32.Sqrt(dx*dx + dy*dy)
			maxDist := math32.Sqrt(w*w + h*h)
			score -= dist / maxDist
		}

		if x-r < marginX || x+r > w-marginX || y-r < marginY || y+r > h-marginY {
			score -= 0.25
		}

		if haveRefColor {
			c := sampleColor(img.Mat, x, y)
			score -= colorDistance(c, refColor) / 441.7 // max sRGB Euclidean distance
		}

		if reference != nil && mode == BallAgainstReference {
			delta := math32.Abs(r-reference.RPx) / reference.RPx
			if delta > 0.25 {
				continue // outside the ~25% radius tolerance spec.md requires
			}
		}

		out = append(out, candidate{x: x, y: y, r: r, score: score})
	}

	return out
}

func sampleColor(mat gocv.Mat, x, y float32) color.RGBA {
	px, py := int(x), int(y)
	if px < 0 || py < 0 || px >= mat.Cols() || py >= mat.Rows() {
		return color.RGBA{}
	}
	v := mat.GetVecbAt(py, px)
	if len(v) < 3 {
		return color.RGBA{}
	}
	return color.RGBA{R: v[2], G: v[1], B: v[0], A: 255}
}

func colorDistance(a, b color.RGBA) float32 {
	dr := float32(a.R) - float32(b.R)
	dg := float32(a.G) - float32(b.G)
	db := float32(a.B) - float32(b.B)
	return math32.Sqrt(dr*dr + dg*dg + db*db)
}

func normalizeScore(score float32) float32 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
