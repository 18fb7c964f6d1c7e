package processor

import "math"

// ComputeSize returns the target dimensions for a srcW x srcH image under req.
// Both results are at least 1. Rounding is half-to-even throughout.
func ComputeSize(srcW, srcH int, req ResizeRequest) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return max(1, srcW), max(1, srcH)
	}

	if req.Mode == ModePercent {
		scale := float64(max(1, req.Percent)) / 100.0
		return max(1, round(float64(srcW)*scale)), max(1, round(float64(srcH)*scale))
	}

	targetW, targetH := srcW, srcH
	if req.Width > 0 {
		targetW = req.Width
	}
	if req.Height > 0 {
		targetH = req.Height
	}

	if req.KeepAspect {
		switch {
		case req.Width > 0 && req.Height <= 0:
			ratio := float64(targetW) / float64(srcW)
			targetH = round(float64(srcH) * ratio)
		case req.Height > 0 && req.Width <= 0:
			ratio := float64(targetH) / float64(srcH)
			targetW = round(float64(srcW) * ratio)
		case req.Width > 0 && req.Height > 0:
			srcRatio := float64(srcW) / float64(srcH)
			tgtRatio := float64(targetW) / float64(targetH)
			if tgtRatio > srcRatio {
				// requested box is wider than the source: height binds
				targetW = round(float64(targetH) * srcRatio)
			} else {
				// width binds, including the exact-ratio tie
				targetH = round(float64(targetW) / srcRatio)
			}
		}
	}

	return max(1, targetW), max(1, targetH)
}

func round(v float64) int {
	return int(math.RoundToEven(v))
}
