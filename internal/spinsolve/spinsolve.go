// Package spinsolve implements C3: recovering the 3-axis rotation between
// two grayscale ball images (a reference ball and a same-diameter target)
// by warping the reference under an orthographic sphere model and scoring
// candidate rotations by normalized cross-correlation (spec.md §4.3).
package spinsolve

import (
	"errors"
	"image"
	"sort"

	"github.com/chewxy/math32"
	"gocv.io/x/gocv"

	"github.com/pitrac/pitrac-go/internal/balldetect"
	"github.com/pitrac/pitrac-go/internal/geometry"
)

// ErrSpinUnavailable is returned when the peak correlation does not clear
// Config.MinConfidence — spec.md §4.4 step 8 then leaves spin at zero and
// proceeds with velocity/angles only.
var ErrSpinUnavailable = errors.New("spinsolve: spin unavailable")

// Result is the recovered 3-axis rotation in degrees plus its confidence.
type Result struct {
	RxDeg, RyDeg, RzDeg float32
	Confidence          float32
}

// Config tunes the coarse grid and refinement search.
type Config struct {
	WorkingResolution int     // square side, in pixels, both crops are normalized to
	CoarseStepDeg     float32 // grid spacing for the coarse sweep
	CoarseRangeDeg    float32 // +/- range searched per axis
	RefineIterations  int
	MinConfidence     float32
}

func DefaultConfig() Config {
	return Config{
		WorkingResolution: 64,
		CoarseStepDeg:     20,
		CoarseRangeDeg:    80,
		RefineIterations:  24,
		MinConfidence:     0.35,
	}
}

// Solve implements spec.md §4.3 steps 1-5: crop, normalize, coarse grid
// search, NCC scoring, local refinement.
func Solve(reference, target gocv.Mat, refBall, targetBall balldetect.BallPosition, cfg Config) (Result, error) {
	refDisc, err := cropNormalize(reference, refBall, cfg.WorkingResolution)
	if err != nil {
		return Result{}, err
	}
	defer refDisc.Close()

	targetDisc, err := cropNormalize(target, targetBall, cfg.WorkingResolution)
	if err != nil {
		return Result{}, err
	}
	defer targetDisc.Close()

	refPixels := matToFloatDisc(refDisc)
	targetPixels := matToFloatDisc(targetDisc)

	best, scores := coarseSearch(refPixels, targetPixels, cfg)
	refined := refine(refPixels, targetPixels, best, cfg)

	confidence := peakMinusMedian(refined.score, scores)
	if confidence < cfg.MinConfidence {
		return Result{}, ErrSpinUnavailable
	}

	return Result{
		RxDeg:      geometry.RadToDeg(refined.rx),
		RyDeg:      geometry.RadToDeg(refined.ry),
		RzDeg:      geometry.RadToDeg(refined.rz),
		Confidence: confidence,
	}, nil
}

// discPixels is a square grayscale image normalized to [0,1] with a
// per-pixel sphere mask: inside==true where the pixel lies within the
// inscribed ball disc.
type discPixels struct {
	side   int
	gray   []float32
	inside []bool
}

func (d discPixels) at(x, y int) (float32, bool) {
	if x < 0 || y < 0 || x >= d.side || y >= d.side {
		return 0, false
	}
	idx := y*d.side + x
	return d.gray[idx], d.inside[idx]
}

func cropNormalize(img gocv.Mat, ball balldetect.BallPosition, resolution int) (gocv.Mat, error) {
	pad := ball.RPx * 1.05
	x0 := int(ball.XPx - pad)
	y0 := int(ball.YPx - pad)
	side := int(pad * 2)
	if side <= 0 {
		return gocv.Mat{}, errors.New("spinsolve: degenerate crop")
	}

	rect := clampRect(image.Rect(x0, y0, x0+side, y0+side), img.Cols(), img.Rows())
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return gocv.Mat{}, errors.New("spinsolve: crop out of bounds")
	}

	crop := img.Region(rect)
	defer crop.Close()

	resized := gocv.NewMat()
	gocv.Resize(crop, &resized, image.Pt(resolution, resolution), 0, 0, gocv.InterpolationLinear)
	return resized, nil
}

func clampRect(r image.Rectangle, w, h int) image.Rectangle {
	if r.Min.X < 0 {
		r.Min.X = 0
	}
	if r.Min.Y < 0 {
		r.Min.Y = 0
	}
	if r.Max.X > w {
		r.Max.X = w
	}
	if r.Max.Y > h {
		r.Max.Y = h
	}
	return r
}

func matToFloatDisc(mat gocv.Mat) discPixels {
	side := mat.Rows()
	out := discPixels{side: side, gray: make([]float32, side*side), inside: make([]bool, side*side)}
	radius := float32(side) / 2

	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			idx := y*side + x
			out.gray[idx] = float32(mat.GetUCharAt(y, x)) / 255

			u := float32(x) - radius
			v := float32(y) - radius
			out.inside[idx] = u*u+v*v <= radius*radius
		}
	}
	return out
}

type candidateResult struct {
	rx, ry, rz float32
	score      float32
}

// warpScore implements spec.md §4.3 steps 3-4: lift each reference disc
// pixel to the unit sphere, rotate by the candidate Euler angles (z then x
// then y), reproject under orthographic projection, sample into the warp,
// and score by normalized cross-correlation against target over the
// region both are defined.
func warpScore(ref, target discPixels, rx, ry, rz float32) float32 {
	rot := geometry.EulerZXY(rx, ry, rz)
	side := target.side
	radius := float32(side) / 2

	var warped []float32
	var mask []bool
	warped = make([]float32, side*side)
	mask = make([]bool, side*side)

	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			u := (float32(x) - radius) / radius
			v := (float32(y) - radius) / radius
			r2 := u*u + v*v
			if r2 > 1 {
				continue
			}
			z := math32.Sqrt(1 - r2)

			p := geometry.Vec3{u, v, z}
			rp := rot.MulVec(p)

			// Re-project the rotated sphere point orthographically and
			// sample the reference disc at that pixel.
			sx := int((rp[0]+1)*radius + 0.5)
			sy := int((rp[1]+1)*radius + 0.5)

			gray, ok := ref.at(sx, sy)
			if !ok {
				continue
			}
			idx := y*side + x
			warped[idx] = gray
			mask[idx] = true
		}
	}

	return normalizedCrossCorrelation(warped, target.gray, mask, target.inside)
}

func normalizedCrossCorrelation(a, b []float32, maskA, maskB []bool) float32 {
	var sumA, sumB, sumAB, sumA2, sumB2 float32
	n := 0
	for i := range a {
		if !maskA[i] || !maskB[i] {
			continue
		}
		av, bv := a[i], b[i]
		sumA += av
		sumB += bv
		sumAB += av * bv
		sumA2 += av * av
		sumB2 += bv * bv
		n++
	}
	if n == 0 {
		return -1
	}
	fn := float32(n)
	meanA := sumA / fn
	meanB := sumB / fn
	covar := sumAB/fn - meanA*meanB
	varA := sumA2/fn - meanA*meanA
	varB := sumB2/fn - meanB*meanB
	denom := math32.Sqrt(varA * varB)
	if denom == 0 {
		return -1
	}
	return covar / denom
}

func coarseSearch(ref, target discPixels, cfg Config) (candidateResult, []float32) {
	step := geometry.DegToRad(cfg.CoarseStepDeg)
	rangeRad := geometry.DegToRad(cfg.CoarseRangeDeg)

	var best candidateResult
	best.score = -2
	var scores []float32

	for rx := -rangeRad; rx <= rangeRad; rx += step {
		for ry := -rangeRad; ry <= rangeRad; ry += step {
			for rz := -rangeRad; rz <= rangeRad; rz += step {
				score := warpScore(ref, target, rx, ry, rz)
				scores = append(scores, score)
				if score > best.score {
					best = candidateResult{rx: rx, ry: ry, rz: rz, score: score}
				}
			}
		}
	}
	return best, scores
}

// refine performs a gradient-free coordinate-descent search around the
// coarse winner, shrinking the step each time no neighbor improves on the
// current best (spec.md §4.3 step 5).
func refine(ref, target discPixels, start candidateResult, cfg Config) candidateResult {
	best := start
	step := geometry.DegToRad(cfg.CoarseStepDeg) / 2

	for i := 0; i < cfg.RefineIterations && step > geometry.DegToRad(0.1); i++ {
		improved := false
		for _, axis := range [3]int{0, 1, 2} {
			for _, sign := range [2]float32{1, -1} {
				cand := best
				delta := sign * step
				switch axis {
				case 0:
					cand.rx += delta
				case 1:
					cand.ry += delta
				case 2:
					cand.rz += delta
				}
				score := warpScore(ref, target, cand.rx, cand.ry, cand.rz)
				if score > best.score {
					cand.score = score
					best = cand
					improved = true
				}
			}
		}
		if !improved {
			step /= 2
		}
	}
	return best
}

func peakMinusMedian(peak float32, scores []float32) float32 {
	if len(scores) == 0 {
		return peak
	}
	sorted := append([]float32(nil), scores...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	median := sorted[len(sorted)/2]
	return peak - median
}
