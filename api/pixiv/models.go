package pixiv

import "encoding/json"

// Numeric fields below use json.Number since the ajax endpoints are not
// consistent about returning numbers vs numeric strings.

type apiResponse struct {
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

// BookmarkSummary is one entry of the bookmark listing. A null or empty
// userId marks a work that was removed upstream.
type BookmarkSummary struct {
	ID     json.Number `json:"id"`
	UserID string      `json:"userId"`
	Title  string      `json:"title"`
}

// IDNum parses the summary's identity. Returns false when the
// listing carried something that is not a numeric id.
func (b *BookmarkSummary) IDNum() (int64, bool) {
	id, err := b.ID.Int64()
	if err != nil {
		return 0, false
	}
	return id, true
}

// IsDeleted reports whether the remote work no longer has an owning user.
func (b *BookmarkSummary) IsDeleted() bool {
	return b.UserID == "" || b.UserID == "0"
}

type BookmarksBody struct {
	Works []*BookmarkSummary `json:"works"`
	Total int                `json:"total"`
}

type DisplayTag struct {
	Tag         string `json:"tag"`
	Translation string `json:"translation"`
}

// MangaPage is one entry of the multi-page detail array. The page index
// must be read from the entry itself, the array is not guaranteed to be
// ordered or contiguous.
type MangaPage struct {
	Page   json.Number `json:"page"`
	UrlBig string      `json:"url_big"`
}

type IllustImage struct {
	Width  json.Number `json:"illust_image_width"`
	Height json.Number `json:"illust_image_height"`
}

type UgoiraApiFrame struct {
	File  string      `json:"file"`
	Delay json.Number `json:"delay"`
}

type UgoiraMeta struct {
	Src      string           `json:"src"`
	MimeType string           `json:"mime_type"`
	Frames   []UgoiraApiFrame `json:"frames"`
}

type IllustDetails struct {
	ID              json.Number   `json:"id"`
	Title           string        `json:"title"`
	CommentHtml     string        `json:"comment_html"`
	Type            json.Number   `json:"type"`
	PageCount       json.Number   `json:"page_count"`
	XRestrict       json.Number   `json:"x_restrict"`
	AiType          json.Number   `json:"ai_type"`
	UploadTimestamp json.Number   `json:"upload_timestamp"`
	Width           json.Number   `json:"width"`
	Height          json.Number   `json:"height"`
	UrlBig          string        `json:"url_big"`
	MaskReason      string        `json:"mask_reason"`
	DisplayTags     []DisplayTag  `json:"display_tags"`
	MangaA          []MangaPage   `json:"manga_a"`
	IllustImages    []IllustImage `json:"illust_images"`
	UgoiraMeta      *UgoiraMeta   `json:"ugoira_meta"`
}

type AuthorDetails struct {
	UserID   json.Number `json:"user_id"`
	UserName string      `json:"user_name"`
}

// DetailBody is the body of the detail endpoint response.
type DetailBody struct {
	IllustDetails IllustDetails `json:"illust_details"`
	AuthorDetails AuthorDetails `json:"author_details"`
}

// DetailResult pairs the parsed detail payload with the raw body bytes
// (retained on the Artwork record) and the authentication escalation
// decision, which the download stage mirrors.
type DetailResult struct {
	Body     *DetailBody
	Raw      []byte
	UsedAuth bool
}
