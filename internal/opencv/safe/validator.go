package safe

import (
	"errors"
	"fmt"
)

var (
	ErrNilMat    = errors.New("mat is nil")
	ErrClosedMat = errors.New("mat is closed")
	ErrEmptyMat  = errors.New("mat is empty")
)

// ValidateForEncode checks that mat is an open, non-empty 3-channel BGR
// image, which is what the JPEG writer expects.
func ValidateForEncode(mat *Mat) error {
	switch {
	case mat == nil:
		return ErrNilMat
	case !mat.IsValid():
		return ErrClosedMat
	case mat.Empty() || mat.Rows() <= 0 || mat.Cols() <= 0:
		return ErrEmptyMat
	}
	if ch := mat.Channels(); ch != 3 {
		return fmt.Errorf("expected 3 channels for encode, got %d", ch)
	}
	return nil
}
