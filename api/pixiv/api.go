package pixiv

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hayasui/pixiv-bookmark-mirror/configs"
	"github.com/hayasui/pixiv-bookmark-mirror/request"
	"github.com/hayasui/pixiv-bookmark-mirror/utils"
)

// Client talks to the two Pixiv ajax endpoints this program uses:
// the bookmark listing and the artwork detail endpoint.
type Client struct {
	config  *configs.Config
	cookies []*http.Cookie
	logger  *zap.SugaredLogger

	// baseUrl and touchUrl are swappable for tests.
	baseUrl  string
	touchUrl string
}

func NewClient(config *configs.Config, cookies []*http.Cookie, logger *zap.SugaredLogger) *Client {
	return &Client{
		config:   config,
		cookies:  cookies,
		logger:   logger,
		baseUrl:  utils.PIXIV_AJAX_URL,
		touchUrl: utils.PIXIV_TOUCH_URL,
	}
}

// callApi performs one endpoint call and peels off the {error, message, body}
// envelope, converting embedded application errors into an ApiError.
func (c *Client) callApi(reqArgs *request.RequestArgs) (json.RawMessage, error) {
	res, err := request.CallRequest(reqArgs)
	if err != nil {
		return nil, &ApiError{Url: reqArgs.Url, Err: err}
	}

	if res.StatusCode != 200 {
		res.Body.Close()
		return nil, &ApiError{
			Url:     reqArgs.Url,
			Message: fmt.Sprintf("unexpected status %s", res.Status),
		}
	}

	var envelope apiResponse
	if err := utils.LoadJsonFromResponse(res, &envelope); err != nil {
		return nil, &ApiError{Url: reqArgs.Url, Err: err}
	}

	if envelope.Error {
		msg := envelope.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, &ApiError{Url: reqArgs.Url, Message: msg}
	}
	return envelope.Body, nil
}

// GetBookmarksPage retrieves one page of the target user's bookmark listing.
func (c *Client) GetBookmarksPage(offset int) (*BookmarksBody, error) {
	url := fmt.Sprintf("%s/user/%s/illusts/bookmarks", c.baseUrl, c.config.TargetUserID)
	body, err := c.callApi(&request.RequestArgs{
		Url:     url,
		Method:  "GET",
		Timeout: c.config.RequestTimeout,
		Cookies: c.cookies,
		Headers: utils.GetPixivRequestHeaders(),
		Params: map[string]string{
			"tag":    "",
			"rest":   "show",
			"offset": strconv.Itoa(offset),
			"limit":  strconv.Itoa(utils.PIXIV_PER_PAGE),
			"lang":   c.config.Lang,
		},
		UserAgent: c.config.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	var page BookmarksBody
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &ApiError{
			Url: url,
			Err: fmt.Errorf("failed to unmarshal bookmark listing: %w", err),
		}
	}
	return &page, nil
}

func (c *Client) fetchDetails(artworkId int64, withAuth bool) (*DetailBody, json.RawMessage, error) {
	url := c.touchUrl + "/illust/details"
	var cookies []*http.Cookie
	if withAuth {
		cookies = c.cookies
	}

	body, err := c.callApi(&request.RequestArgs{
		Url:     url,
		Method:  "GET",
		Timeout: c.config.RequestTimeout,
		Cookies: cookies,
		Headers: utils.GetPixivRequestHeaders(),
		Params: map[string]string{
			"illust_id": strconv.FormatInt(artworkId, 10),
			"lang":      c.config.Lang,
		},
		UserAgent:   c.config.UserAgent,
		Retries:     c.config.DetailRetries,
		RetryDelay:  c.config.RetryDelay,
		CheckStatus: true,
	})
	if err != nil {
		return nil, nil, err
	}

	var details DetailBody
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, nil, &ApiError{
			Url: url,
			Err: fmt.Errorf("failed to unmarshal details for artwork %d: %w", artworkId, err),
		}
	}
	return &details, body, nil
}

// GetIllustDetails retrieves the full metadata payload for one artwork.
//
// The first attempt runs unauthenticated. When the payload carries a mask
// reason the content is access-restricted, so the request is re-issued once
// with the session cookies attached and that result is returned instead.
// The escalation is a single explicit branch, independent of the bounded
// network retries underneath.
func (c *Client) GetIllustDetails(artworkId int64) (*DetailResult, error) {
	details, raw, err := c.fetchDetails(artworkId, false)
	if err != nil {
		return nil, &FetchError{ArtworkID: artworkId, Err: err}
	}

	if details.IllustDetails.MaskReason == "" {
		return &DetailResult{Body: details, Raw: raw}, nil
	}

	c.logger.Infow(
		"artwork is access-restricted, retrying with session cookies",
		"artworkId", artworkId,
		"maskReason", details.IllustDetails.MaskReason,
	)
	details, raw, err = c.fetchDetails(artworkId, true)
	if err != nil {
		return nil, &FetchError{ArtworkID: artworkId, Err: err}
	}
	return &DetailResult{Body: details, Raw: raw, UsedAuth: true}, nil
}
