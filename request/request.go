package request

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// add headers to the request
func AddHeaders(headers map[string]string, defaultUserAgent string, req *http.Request) {
	if userAgent, ok := headers["User-Agent"]; !ok || userAgent == "" {
		headers["User-Agent"] = defaultUserAgent
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

// add cookies to the request
func AddCookies(reqUrl string, cookies []*http.Cookie, req *http.Request) {
	for _, cookie := range cookies {
		if cookie.Domain == "" || strings.Contains(reqUrl, cookie.Domain) {
			req.AddCookie(cookie)
		}
	}
}

// add params to the request
func AddParams(params map[string]string, req *http.Request) {
	if len(params) == 0 {
		return
	}

	query := req.URL.Query()
	for key, value := range params {
		query.Add(key, value)
	}
	req.URL.RawQuery = query.Encode()
}

// send the request to the target URL and retries if the request was not successful
func sendRequest(req *http.Request, reqArgs *RequestArgs) (*http.Response, error) {
	AddCookies(reqArgs.Url, reqArgs.Cookies, req)
	AddHeaders(reqArgs.Headers, reqArgs.UserAgent, req)
	AddParams(reqArgs.Params, req)

	var err error
	var res *http.Response

	client := &http.Client{Timeout: reqArgs.Timeout}
	for i := 1; i <= reqArgs.Retries; i++ {
		res, err = client.Do(req)
		if err == nil {
			if !reqArgs.CheckStatus || res.StatusCode == 200 {
				return res, nil
			}
			res.Body.Close()
		} else if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}

		if i < reqArgs.Retries {
			time.Sleep(reqArgs.RetryDelay)
		}
	}

	errMsg := fmt.Sprintf(
		"the request to %s failed after %d attempt(s)",
		reqArgs.Url,
		reqArgs.Retries,
	)
	if err != nil {
		err = fmt.Errorf("%s, more info => %w", errMsg, err)
	} else if res != nil {
		err = fmt.Errorf("%s, status code => %s", errMsg, res.Status)
	} else {
		err = errors.New(errMsg)
	}
	return nil, err
}

// CallRequest is used to make a request to a URL and return the response
//
// If the request fails, it will retry the request up to the
// number of attempts set in the request arguments
func CallRequest(reqArgs *RequestArgs) (*http.Response, error) {
	reqArgs.ValidateArgs()
	req, err := http.NewRequestWithContext(
		reqArgs.Context,
		reqArgs.Method,
		reqArgs.Url,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create a new request, more info => %w", err)
	}

	return sendRequest(req, reqArgs)
}
