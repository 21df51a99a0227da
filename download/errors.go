package download

import "fmt"

// DownloadError is returned when all download attempts for one asset
// have been exhausted.
type DownloadError struct {
	Url string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download %s: %v", e.Url, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}
