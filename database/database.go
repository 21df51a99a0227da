package database

import (
	"errors"
	"fmt"
	"strconv"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/hayasui/pixiv-bookmark-mirror/models"
)

// Store is the local mirror state: one row per bookmarked work and one
// row per downloaded asset. All writes are idempotent upserts so an
// interrupted run can simply be re-run.
type Store struct {
	db *gorm.DB
}

// NewStore opens (or creates) the mirror database at path and migrates
// the schema. Uses the pure-Go sqlite driver, no cgo involved.
func NewStore(path string) (*Store, error) {
	dialector := sqlite.Dialector{DriverName: "sqlite", DSN: path}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	if err := db.AutoMigrate(&models.Artwork{}, &models.Image{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDb, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}

// BookmarkIDSet returns the identities of all locally known bookmarks,
// tombstones included. This is the local side of the diff.
func (s *Store) BookmarkIDSet() (map[int64]struct{}, error) {
	var ids []int64
	if err := s.db.Model(&models.Artwork{}).Pluck("id", &ids).Error; err != nil {
		return nil, &PersistenceError{Op: "list", Key: "bookmarks", Err: err}
	}

	idSet := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	return idSet, nil
}

// UpsertBookmark writes the artwork record, replacing any existing row
// with the same identity.
func (s *Store) UpsertBookmark(artwork *models.Artwork) error {
	tx := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(artwork)
	if tx.Error != nil {
		return &PersistenceError{
			Op:  "upsert bookmark",
			Key: strconv.FormatInt(artwork.ID, 10),
			Err: tx.Error,
		}
	}
	return nil
}

// UpsertImage writes the image record, replacing any existing row with
// the same identity.
func (s *Store) UpsertImage(image *models.Image) error {
	tx := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(image)
	if tx.Error != nil {
		return &PersistenceError{Op: "upsert image", Key: image.ID, Err: tx.Error}
	}
	return nil
}

// GetBookmark returns the stored artwork or nil when it is not mirrored.
func (s *Store) GetBookmark(artworkId int64) (*models.Artwork, error) {
	var artwork models.Artwork
	err := s.db.First(&artwork, "id = ?", artworkId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{
			Op:  "get bookmark",
			Key: strconv.FormatInt(artworkId, 10),
			Err: err,
		}
	}
	return &artwork, nil
}

// GetImage returns the stored image or nil when it is not mirrored.
func (s *Store) GetImage(imageId string) (*models.Image, error) {
	var image models.Image
	err := s.db.First(&image, "id = ?", imageId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get image", Key: imageId, Err: err}
	}
	return &image, nil
}

// GetImagesByArtwork returns the stored images of one artwork ordered by
// page index.
func (s *Store) GetImagesByArtwork(artworkId int64) ([]*models.Image, error) {
	var images []*models.Image
	err := s.db.
		Where("id_num = ?", artworkId).
		Order("page_index").
		Find(&images).Error
	if err != nil {
		return nil, &PersistenceError{
			Op:  "list images",
			Key: strconv.FormatInt(artworkId, 10),
			Err: err,
		}
	}
	return images, nil
}

// DeleteBookmark removes the artwork row. Deleting a missing row is not
// an error.
func (s *Store) DeleteBookmark(artworkId int64) error {
	err := s.db.Delete(&models.Artwork{}, "id = ?", artworkId).Error
	if err != nil {
		return &PersistenceError{
			Op:  "delete bookmark",
			Key: strconv.FormatInt(artworkId, 10),
			Err: err,
		}
	}
	return nil
}

// DeleteImage removes the image row. Deleting a missing row is not an
// error.
func (s *Store) DeleteImage(imageId string) error {
	err := s.db.Delete(&models.Image{}, "id = ?", imageId).Error
	if err != nil {
		return &PersistenceError{Op: "delete image", Key: imageId, Err: err}
	}
	return nil
}
