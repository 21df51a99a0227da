package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// checks if a file or directory exists
func PathExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

// Returns the file size based on the provided file path
//
// If the file does not exist or
// there was an error opening the file at the given file path string, -1 is returned
func GetFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return -1, err
	}
	return fileInfo.Size(), nil
}

// Removes any characters that are illegal on common filesystems
// to prevent any error with file I/O using the file name
func SanitizeFilename(dirtyFilename string) string {
	cleaned := ILLEGAL_FILENAME_CHARS_REGEX.ReplaceAllString(dirtyFilename, "")
	return strings.TrimSpace(cleaned)
}

// Returns the file name for a downloaded asset,
// "<artworkId>_p<paddedIndex> - <title> - <author>.<ext>", sanitized.
func GetImageFilename(artworkId int64, index int, title, author, ext string) string {
	filename := fmt.Sprintf(
		"%d_p%03d - %s - %s.%s",
		artworkId,
		index,
		title,
		author,
		ext,
	)
	return SanitizeFilename(filename)
}

// Returns the last part of the given URL string
func GetLastPartOfUrl(url string) string {
	removedParams := strings.SplitN(url, "?", 2)
	splittedUrl := strings.Split(removedParams[0], "/")
	return splittedUrl[len(splittedUrl)-1]
}

// Returns the lowercased extension of the URL's file part without the dot,
// e.g. "https://i.pximg.net/img/1_p0.PNG?x=1" -> "png"
func GetExtFromUrl(url string) string {
	ext := filepath.Ext(GetLastPartOfUrl(url))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
