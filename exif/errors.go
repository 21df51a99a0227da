package exif

import "fmt"

// TaggingError is returned when writing metadata into one compressed
// file fails. Tagging failures never undo the stored download.
type TaggingError struct {
	Path string
	Err  error
}

func (e *TaggingError) Error() string {
	return fmt.Sprintf("failed to tag %s: %v", e.Path, e.Err)
}

func (e *TaggingError) Unwrap() error {
	return e.Err
}
