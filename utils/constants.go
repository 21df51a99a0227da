package utils

import "regexp"

const (
	VERSION = "1.0.0"

	PIXIV_URL       = "https://www.pixiv.net"
	PIXIV_AJAX_URL  = "https://www.pixiv.net/ajax"
	PIXIV_TOUCH_URL = "https://www.pixiv.net/touch/ajax"

	// Pixiv's bookmark listing endpoint pages by offset with this page size.
	PIXIV_PER_PAGE = 100

	// The touch endpoints expect a mobile user agent.
	USER_AGENT = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"

	// Timestamp format used by exiftool for DateTimeOriginal.
	EXIF_TIME_FORMAT = "2006:01:02 15:04:05"

	// Pixiv's launch date, used when an artwork carries no upload timestamp.
	FALLBACK_EXIF_TIME = "2007:09:10 00:00:00"
)

var ILLEGAL_FILENAME_CHARS_REGEX = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

func GetPixivRequestHeaders() map[string]string {
	return map[string]string{
		"Origin":  PIXIV_URL,
		"Referer": PIXIV_URL + "/",
	}
}
