package paraxial

import (
	"errors"
	"fmt"
)

// ErrConfiguration is wrapped by every error returned for lens parameters that
// fall outside the range where the paraxial model is valid.
var ErrConfiguration = errors.New("lens configuration error")

// ErrNumericDegeneracy is wrapped by every error returned when a derived
// quantity has no finite value for the given parameters.
var ErrNumericDegeneracy = errors.New("numeric degeneracy")

var (
	ErrInvalidInput      = fmt.Errorf("%w: invalid input parameter", ErrConfiguration)
	ErrImageBehindSensor = fmt.Errorf("%w: the point image is behind the sensor, adjust the point object position", ErrConfiguration)
	ErrApertureTooLarge  = fmt.Errorf("%w: aperture is too large", ErrConfiguration)
	ErrThicknessTooLarge = fmt.Errorf("%w: thickness is too large", ErrConfiguration)
	ErrSensorTooLarge    = fmt.Errorf("%w: image sensor size is too large", ErrConfiguration)
	ErrTooManyPixels     = fmt.Errorf("%w: number of pixels is too large", ErrConfiguration)

	ErrFocalLengthUndefined = fmt.Errorf("%w: lensmaker equation has zero optical power", ErrNumericDegeneracy)
	ErrImageAtInfinity      = fmt.Errorf("%w: point source is at the focal plane, image at infinity", ErrNumericDegeneracy)
)
