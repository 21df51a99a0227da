package pixiv

import "fmt"

// ApiError is returned when a remote call fails at the network level,
// responds with a non-success status, or carries an application-level
// error field in its payload. At pipeline start it is fatal.
type ApiError struct {
	Url     string
	Message string
	Err     error
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pixiv api error for %s: %v", e.Url, e.Err)
	}
	return fmt.Sprintf("pixiv api error for %s: %s", e.Url, e.Message)
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

// FetchError is returned when detail retrieval for one artwork
// has exhausted its retries.
type FetchError struct {
	ArtworkID int64
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch details for artwork %d: %v", e.ArtworkID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError is returned for payload shapes the builder cannot
// safely interpret. It aborts the one artwork, never the batch.
type ValidationError struct {
	ArtworkID int64
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload for artwork %d: %s", e.ArtworkID, e.Reason)
}
