package models

import (
	"time"
)

type ArtworkType int64

const (
	ILLUST ArtworkType = iota
	MANGA
	UGOIRA
)

// String returns the name used for the per-type download subdirectory.
func (t ArtworkType) String() string {
	switch t {
	case ILLUST:
		return "Illustration"
	case MANGA:
		return "Manga"
	case UGOIRA:
		return "Ugoira"
	default:
		return "Unknown"
	}
}

func (t ArtworkType) IsValid() bool {
	return t == ILLUST || t == MANGA || t == UGOIRA
}

type ArtworkRestrict int64

const (
	RESTRICT_NORMAL ArtworkRestrict = iota
	RESTRICT_R18
	RESTRICT_R18G
)

func (r ArtworkRestrict) String() string {
	switch r {
	case RESTRICT_NORMAL:
		return "Normal"
	case RESTRICT_R18:
		return "R18"
	case RESTRICT_R18G:
		return "R18G"
	default:
		return "Unknown"
	}
}

// AI_GENERATED is the aiType value Pixiv assigns to AI-generated works.
const AI_GENERATED = 2

// Tag is a value type; order and duplicates follow the remote payload.
type Tag struct {
	Tag         string `json:"tag"`
	Translation string `json:"translation"`
}

// NewTag defaults the translation to the tag text when absent.
func NewTag(tag, translation string) Tag {
	if translation == "" {
		translation = tag
	}
	return Tag{Tag: tag, Translation: translation}
}

// DisplayTag returns "tag(translation)" when the two differ, else the tag.
func (t Tag) DisplayTag() string {
	if t.Tag != t.Translation && t.Translation != "" {
		return t.Tag + "(" + t.Translation + ")"
	}
	return t.Tag
}

type UgoiraFrame struct {
	File  string `json:"file"`
	Delay int64  `json:"delay"`
}

// UgoiraInfo is the animation metadata attached to ugoira artworks:
// the frame bundle source URL and the per-frame display delays in ms.
type UgoiraInfo struct {
	Src      string        `json:"src"`
	MimeType string        `json:"mime_type"`
	Frames   []UgoiraFrame `json:"frames"`
}

// Artwork is one bookmarked work. Complex fields are stored as JSON blobs,
// the store does not interpret them.
type Artwork struct {
	ID         int64           `gorm:"primaryKey" json:"id"`
	Title      string          `json:"title"`
	Comment    string          `json:"comment"`
	PageCount  int             `json:"pageCount"`
	UserID     int64           `json:"userId"`
	UserName   string          `json:"userName"`
	Type       ArtworkType     `json:"type"`
	Restrict   ArtworkRestrict `json:"restrict"`
	AiType     int64           `json:"aiType"`
	Timestamp  time.Time       `json:"timestamp"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Tags       []Tag           `gorm:"serializer:json" json:"tags"`
	UgoiraInfo *UgoiraInfo     `gorm:"serializer:json" json:"ugoiraInfo,omitempty"`

	// RawPayload keeps the full fetched detail payload for
	// forward compatibility and debugging.
	RawPayload []byte `json:"-"`

	IsDeleted bool `json:"isDeleted"`
}

func (Artwork) TableName() string {
	return "bookmarks"
}

// IsAiGenerated reports whether the work is marked as AI-generated.
func (a *Artwork) IsAiGenerated() bool {
	return a.AiType == AI_GENERATED
}

// Image is one downloadable asset belonging to an Artwork: one page for
// illustrations and manga, or the zipped frame bundle for ugoira.
type Image struct {
	// ID is "<artworkId>_p<index>" for pages, the bare artwork id for ugoira.
	ID string `gorm:"primaryKey" json:"id"`

	// IDNum references the owning Artwork by id (lookup only).
	IDNum int64 `gorm:"index" json:"idNum"`

	Index  int    `gorm:"column:page_index" json:"index"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ext    string `json:"ext"`

	// OriginalPath is set after a successful download,
	// CompressedPath after a successful transcode.
	OriginalPath   string `json:"originalPath"`
	CompressedPath string `json:"compressedPath"`

	IsDeleted bool `json:"isDeleted"`
}

func (Image) TableName() string {
	return "images"
}
