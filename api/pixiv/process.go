package pixiv

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hayasui/pixiv-bookmark-mirror/models"
	"github.com/hayasui/pixiv-bookmark-mirror/utils"
)

func numToInt64(n json.Number) int64 {
	v, _ := n.Int64()
	return v
}

func numToInt(n json.Number) int {
	return int(numToInt64(n))
}

// BuildTombstone yields the record persisted for a work that was removed
// upstream. When a local row already exists it is reused so previously
// mirrored fields survive, otherwise a minimal record is synthesized.
// Tombstones never carry Images.
func BuildTombstone(artworkId int64, existing *models.Artwork) *models.Artwork {
	if existing != nil {
		tombstone := *existing
		tombstone.IsDeleted = true
		return &tombstone
	}
	return &models.Artwork{
		ID:        artworkId,
		IsDeleted: true,
	}
}

func buildTags(displayTags []DisplayTag) []models.Tag {
	if len(displayTags) == 0 {
		return nil
	}

	// Remote order is kept and duplicates are not collapsed.
	tags := make([]models.Tag, 0, len(displayTags))
	for _, displayTag := range displayTags {
		tags = append(tags, models.NewTag(displayTag.Tag, displayTag.Translation))
	}
	return tags
}

func buildUgoiraInfo(meta *UgoiraMeta) *models.UgoiraInfo {
	if meta == nil {
		return nil
	}

	info := &models.UgoiraInfo{
		Src:      meta.Src,
		MimeType: meta.MimeType,
		Frames:   make([]models.UgoiraFrame, 0, len(meta.Frames)),
	}
	for _, frame := range meta.Frames {
		info.Frames = append(info.Frames, models.UgoiraFrame{
			File:  frame.File,
			Delay: numToInt64(frame.Delay),
		})
	}
	return info
}

func buildImages(artwork *models.Artwork, details *IllustDetails) ([]*models.Image, error) {
	switch artwork.Type {
	case models.ILLUST, models.MANGA:
		if artwork.PageCount <= 1 {
			return []*models.Image{{
				ID:     fmt.Sprintf("%d_p0", artwork.ID),
				IDNum:  artwork.ID,
				Index:  0,
				URL:    details.UrlBig,
				Width:  artwork.Width,
				Height: artwork.Height,
				Ext:    utils.GetExtFromUrl(details.UrlBig),
			}}, nil
		}

		// The two page arrays are zipped positionally, so mismatched
		// lengths would silently assign dimensions to the wrong pages.
		if len(details.MangaA) != len(details.IllustImages) {
			return nil, &ValidationError{
				ArtworkID: artwork.ID,
				Reason: fmt.Sprintf(
					"page detail count %d does not match page dimension count %d",
					len(details.MangaA),
					len(details.IllustImages),
				),
			}
		}

		images := make([]*models.Image, 0, len(details.MangaA))
		for i, page := range details.MangaA {
			// The page index comes from the entry itself, the array
			// may be reordered or sparse.
			pageIndex := numToInt(page.Page)
			images = append(images, &models.Image{
				ID:     fmt.Sprintf("%d_p%d", artwork.ID, pageIndex),
				IDNum:  artwork.ID,
				Index:  pageIndex,
				URL:    page.UrlBig,
				Width:  numToInt(details.IllustImages[i].Width),
				Height: numToInt(details.IllustImages[i].Height),
				Ext:    utils.GetExtFromUrl(page.UrlBig),
			})
		}
		return images, nil

	case models.UGOIRA:
		if artwork.UgoiraInfo == nil || artwork.UgoiraInfo.Src == "" {
			return nil, nil
		}
		return []*models.Image{{
			ID:     fmt.Sprintf("%d", artwork.ID),
			IDNum:  artwork.ID,
			Index:  0,
			URL:    artwork.UgoiraInfo.Src,
			Width:  artwork.Width,
			Height: artwork.Height,
			Ext:    "zip",
		}}, nil

	default:
		return nil, &ValidationError{
			ArtworkID: artwork.ID,
			Reason:    fmt.Sprintf("unrecognized artwork type %d", artwork.Type),
		}
	}
}

// BuildArtwork maps one fetched detail payload into an Artwork and its
// Images. It is a pure transformation, nothing is fetched or persisted.
func BuildArtwork(artworkId int64, result *DetailResult) (*models.Artwork, []*models.Image, error) {
	details := &result.Body.IllustDetails
	author := &result.Body.AuthorDetails

	artwork := &models.Artwork{
		ID:         artworkId,
		Title:      details.Title,
		Comment:    details.CommentHtml,
		PageCount:  numToInt(details.PageCount),
		UserID:     numToInt64(author.UserID),
		UserName:   author.UserName,
		Type:       models.ArtworkType(numToInt64(details.Type)),
		Restrict:   models.ArtworkRestrict(numToInt64(details.XRestrict)),
		AiType:     numToInt64(details.AiType),
		Timestamp:  time.Unix(numToInt64(details.UploadTimestamp), 0),
		Width:      numToInt(details.Width),
		Height:     numToInt(details.Height),
		Tags:       buildTags(details.DisplayTags),
		UgoiraInfo: buildUgoiraInfo(details.UgoiraMeta),
		RawPayload: result.Raw,
	}

	if !artwork.Type.IsValid() {
		return nil, nil, &ValidationError{
			ArtworkID: artworkId,
			Reason:    fmt.Sprintf("unrecognized artwork type %q", details.Type.String()),
		}
	}

	images, err := buildImages(artwork, details)
	if err != nil {
		return nil, nil, err
	}
	return artwork, images, nil
}
