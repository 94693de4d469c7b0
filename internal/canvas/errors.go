package canvas

import "errors"

// Errors returned by canvas operations.
var (
	// ErrObjectNotFound indicates no object has the requested ID.
	ErrObjectNotFound = errors.New("object not found")

	// ErrReadOnlyKey indicates an attempt to change an object's type.
	ErrReadOnlyKey = errors.New("property is read-only")

	// ErrInvalidKey indicates a property key that cannot be serialized.
	ErrInvalidKey = errors.New("invalid property key")

	// ErrInvalidValue indicates a property value that has no JSON form,
	// such as NaN or an infinity.
	ErrInvalidValue = errors.New("invalid property value")

	// ErrMalformedSnapshot indicates a snapshot that is not a canvas document.
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	// ErrUnknownType indicates an object type the canvas cannot draw.
	ErrUnknownType = errors.New("unknown object type")

	// ErrEmptyRegion indicates an export region smaller than one pixel.
	ErrEmptyRegion = errors.New("export region is empty")

	// ErrUnsupportedFormat indicates an export format other than png or jpeg.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrUnsupportedImageSource indicates an image src that is not a data URL.
	ErrUnsupportedImageSource = errors.New("unsupported image source")
)
