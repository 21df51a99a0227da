package transcode

import "fmt"

// TranscodeError is returned when producing the compressed rendition of
// a downloaded asset fails. The raw download stays on disk untouched.
type TranscodeError struct {
	Path string
	Err  error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("failed to transcode %s: %v", e.Path, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}
