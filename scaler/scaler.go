// Package scaler computes engine target dimensions from a source size and a
// scale factor.
package scaler

import (
	"fmt"
	"math"

	"vid2vid/models"
)

// TargetDimensions applies scale to the source dimensions with truncating
// multiplication, i.e. (int(h*scale), int(w*scale)).
//
// Returns an error wrapping models.ErrValueConstraint if:
//   - scale is not a positive finite number
//   - the source dimensions are not positive
//   - either scaled dimension truncates to zero
//
// Example:
//
//	dims, err := scaler.TargetDimensions(models.Dimensions{Height: 480, Width: 640}, 0.5)
//	// dims == {Height: 240, Width: 320}
func TargetDimensions(src models.Dimensions, scale float64) (models.Dimensions, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return models.Dimensions{}, fmt.Errorf("%w: scale must be a positive number, got %v", models.ErrValueConstraint, scale)
	}
	if err := src.Validate(); err != nil {
		return models.Dimensions{}, fmt.Errorf("source: %w", err)
	}

	target := models.Dimensions{
		Height: int(float64(src.Height) * scale),
		Width:  int(float64(src.Width) * scale),
	}
	if target.Height <= 0 || target.Width <= 0 {
		return models.Dimensions{}, fmt.Errorf("%w: scale %v turns %s into %s",
			models.ErrValueConstraint, scale, src, target)
	}

	return target, nil
}
