package category

import "errors"

var (
	// ErrUnknownCategory is returned when removing a category that does not exist.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrBuiltinCategory is returned when removing a built-in category.
	ErrBuiltinCategory = errors.New("built-in categories cannot be removed")

	// ErrInvalidName is returned for category names that are empty, start
	// with a dot, or contain separators.
	ErrInvalidName = errors.New("invalid category name: use letters, digits, '-' or '_'")

	// ErrInvalidExtension is returned for extensions containing characters
	// other than letters, digits, '-', '_' or '+'.
	ErrInvalidExtension = errors.New("invalid extension")

	// ErrNoExtensions is returned when adding a category without extensions.
	ErrNoExtensions = errors.New("a category needs at least one extension")

	// ErrUnsupportedVersion is returned when the file was written by a newer
	// version of filecrawl.
	ErrUnsupportedVersion = errors.New("unsupported category file version")
)
