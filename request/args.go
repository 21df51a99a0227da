package request

import (
	"context"
	"net/http"
	"time"

	"github.com/hayasui/pixiv-bookmark-mirror/utils"
)

type RequestArgs struct {
	// Main Request Options
	Method string
	Url    string

	// Timeout applies per attempt, not across retries.
	Timeout time.Duration

	// Additional Request Options
	Headers   map[string]string
	Params    map[string]string
	Cookies   []*http.Cookie
	UserAgent string

	// Retries is the number of attempts made before giving up;
	// RetryDelay is the fixed wait between attempts.
	Retries    int
	RetryDelay time.Duration

	// CheckStatus will treat any non-200 response as a failed attempt.
	// Otherwise the response is returned regardless of the status code.
	CheckStatus bool

	// Context is used to cancel the request if needed.
	Context context.Context
}

// ValidateArgs fills in defaults for optional fields.
// Should be called before the request is sent.
func (args *RequestArgs) ValidateArgs() {
	if args.Method == "" {
		args.Method = "GET"
	}

	if args.Headers == nil {
		args.Headers = make(map[string]string)
	}

	if args.UserAgent == "" {
		args.UserAgent = utils.USER_AGENT
	}

	if args.Context == nil {
		args.Context = context.Background()
	}

	if args.Timeout <= 0 {
		args.Timeout = 15 * time.Second
	}

	if args.Retries <= 0 {
		args.Retries = 1
	}

	if args.RetryDelay <= 0 {
		args.RetryDelay = time.Second
	}
}
