package pixiv

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hayasui/pixiv-bookmark-mirror/configs"
)

func testClient(server *httptest.Server, cookies []*http.Cookie) *Client {
	client := NewClient(&configs.Config{
		TargetUserID:   "42",
		Lang:           "en",
		UserAgent:      "test-agent",
		DetailRetries:  2,
		RetryDelay:     time.Millisecond,
		RequestTimeout: 5 * time.Second,
	}, cookies, zap.NewNop().Sugar())
	client.baseUrl = server.URL
	client.touchUrl = server.URL
	return client
}

func bookmarksPage(works string) string {
	return fmt.Sprintf(`{"error": false, "body": {"works": %s, "total": 5}}`, works)
}

func TestSyncNewBookmarksDiff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user/42/illusts/bookmarks", r.URL.Path)
		require.Equal(t, "show", r.URL.Query().Get("rest"))
		require.Equal(t, "100", r.URL.Query().Get("limit"))

		switch r.URL.Query().Get("offset") {
		case "0":
			fmt.Fprint(w, bookmarksPage(`[
				{"id": "5", "userId": "7", "title": "e"},
				{"id": 4, "userId": "7", "title": "d"},
				{"id": "3", "userId": "7", "title": "c"}
			]`))
		case "100":
			fmt.Fprint(w, bookmarksPage(`[
				{"id": "2", "userId": "7", "title": "b"},
				{"id": "1", "userId": "7", "title": "a"}
			]`))
		default:
			t.Errorf("unexpected offset %s", r.URL.Query().Get("offset"))
		}
	}))
	defer server.Close()

	client := testClient(server, nil)
	local := map[int64]struct{}{1: {}, 2: {}, 3: {}}

	novel, err := client.SyncNewBookmarks(local)
	require.NoError(t, err)

	// Only the two unseen works, in listing order. Paging stops at the
	// second page since everything on it is already known.
	require.Len(t, novel, 2)
	first, _ := novel[0].IDNum()
	second, _ := novel[1].IDNum()
	assert.Equal(t, int64(5), first)
	assert.Equal(t, int64(4), second)
}

func TestSyncNewBookmarksStopsOnEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "0" {
			fmt.Fprint(w, bookmarksPage(`[{"id": "5", "userId": "7", "title": "e"}]`))
			return
		}
		fmt.Fprint(w, bookmarksPage(`[]`))
	}))
	defer server.Close()

	novel, err := testClient(server, nil).SyncNewBookmarks(nil)
	require.NoError(t, err)
	assert.Len(t, novel, 1)
}

func TestSyncNewBookmarksAbortsOnApiError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": true, "message": "invalid user", "body": null}`)
	}))
	defer server.Close()

	_, err := testClient(server, nil).SyncNewBookmarks(nil)
	require.Error(t, err)
	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Error(), "invalid user")
}

func detailPayload(maskReason, title string) string {
	return fmt.Sprintf(`{
		"error": false,
		"body": {
			"illust_details": {
				"id": "101",
				"title": %q,
				"type": "0",
				"page_count": "1",
				"upload_timestamp": 1600000000,
				"width": "1200",
				"height": "900",
				"url_big": "https://i.pximg.net/101_p0.png",
				"mask_reason": %q
			},
			"author_details": {"user_id": "7", "user_name": "author"}
		}
	}`, title, maskReason)
}

func TestGetIllustDetailsNoEscalation(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, "/illust/details", r.URL.Path)
		require.Equal(t, "101", r.URL.Query().Get("illust_id"))
		require.Empty(t, r.Cookies(), "unrestricted fetch must not carry the session")
		fmt.Fprint(w, detailPayload("", "public work"))
	}))
	defer server.Close()

	cookies := []*http.Cookie{{Name: "PHPSESSID", Value: "secret"}}
	result, err := testClient(server, cookies).GetIllustDetails(101)
	require.NoError(t, err)

	assert.Equal(t, 1, requests)
	assert.False(t, result.UsedAuth)
	assert.Equal(t, "public work", result.Body.IllustDetails.Title)
	assert.NotEmpty(t, result.Raw)
}

func TestGetIllustDetailsEscalatesExactlyOnce(t *testing.T) {
	var unauthed, authed int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.Cookies()) == 0 {
			unauthed++
			fmt.Fprint(w, detailPayload("r18", "masked"))
			return
		}
		authed++
		fmt.Fprint(w, detailPayload("", "restricted work"))
	}))
	defer server.Close()

	cookies := []*http.Cookie{{Name: "PHPSESSID", Value: "secret"}}
	result, err := testClient(server, cookies).GetIllustDetails(101)
	require.NoError(t, err)

	assert.Equal(t, 1, unauthed)
	assert.Equal(t, 1, authed)
	assert.True(t, result.UsedAuth)
	assert.Equal(t, "restricted work", result.Body.IllustDetails.Title)
}

func TestGetIllustDetailsStillMaskedAfterEscalation(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, detailPayload("deleted", "gone"))
	}))
	defer server.Close()

	cookies := []*http.Cookie{{Name: "PHPSESSID", Value: "secret"}}
	result, err := testClient(server, cookies).GetIllustDetails(101)
	require.NoError(t, err)

	// One escalation, never more: whatever the authenticated fetch
	// returned is the final answer.
	assert.Equal(t, 2, requests)
	assert.True(t, result.UsedAuth)
	assert.Equal(t, "deleted", result.Body.IllustDetails.MaskReason)
}

func TestGetIllustDetailsRetriesNetworkFailures(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, detailPayload("", "flaky work"))
	}))
	defer server.Close()

	result, err := testClient(server, nil).GetIllustDetails(101)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
	assert.Equal(t, "flaky work", result.Body.IllustDetails.Title)
}

func TestBookmarkSummaryIsDeleted(t *testing.T) {
	assert.True(t, (&BookmarkSummary{ID: "9", UserID: ""}).IsDeleted())
	assert.True(t, (&BookmarkSummary{ID: "9", UserID: "0"}).IsDeleted())
	assert.False(t, (&BookmarkSummary{ID: "9", UserID: "7"}).IsDeleted())
}
