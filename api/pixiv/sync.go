package pixiv

import (
	"time"

	"github.com/hayasui/pixiv-bookmark-mirror/utils"
)

// SyncNewBookmarks pages through the remote bookmark listing and returns the
// summaries whose identities are not in the locally known set, in listing
// order (newest first).
//
// Paging stops when a page comes back empty or when a page's whole identity
// set is already known locally: the listing is chronological, so a fully
// known page means the diff has caught up with the previous run. Errors from
// the listing endpoint are returned as-is and abort the run before any
// processing starts.
func (c *Client) SyncNewBookmarks(localIds map[int64]struct{}) ([]*BookmarkSummary, error) {
	var newBookmarks []*BookmarkSummary

	for offset := 0; ; offset += utils.PIXIV_PER_PAGE {
		page, err := c.GetBookmarksPage(offset)
		if err != nil {
			return nil, err
		}
		if len(page.Works) == 0 {
			break
		}

		novelInPage := 0
		for _, summary := range page.Works {
			id, ok := summary.IDNum()
			if !ok {
				c.logger.Warnw(
					"skipping bookmark with non-numeric id",
					"id", summary.ID.String(),
				)
				continue
			}
			if _, known := localIds[id]; known {
				continue
			}
			novelInPage++
			newBookmarks = append(newBookmarks, summary)
		}

		if novelInPage == 0 {
			break
		}

		c.logger.Infow(
			"found new bookmarks",
			"page", novelInPage,
			"total", len(newBookmarks),
		)

		// Pixiv rate limits aggressively, pace the listing requests.
		time.Sleep(utils.GetRandomDelay())
	}

	return newBookmarks, nil
}
