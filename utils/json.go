package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Reads and returns the response body in bytes and closes it
func ReadResBody(res *http.Response) ([]byte, error) {
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to read response body from %s due to %w",
			res.Request.URL.String(),
			err,
		)
	}
	return body, nil
}

// Read the response body and unmarshal it into the given format
func LoadJsonFromResponse(res *http.Response, format any) error {
	body, err := ReadResBody(res)
	if err != nil {
		return err
	}

	if err = json.Unmarshal(body, format); err != nil {
		return fmt.Errorf(
			"failed to unmarshal json response from %s due to %w\nBody: %s",
			res.Request.URL.String(),
			err,
			string(body),
		)
	}
	return nil
}
