package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archiver/v4"
)

func extractHandler(dest string) func(ctx context.Context, file archiver.File) error {
	return func(ctx context.Context, file archiver.File) error {
		path := filepath.Join(dest, file.NameInArchive)
		// Check for ZipSlip (Directory traversal)
		if !strings.HasPrefix(path, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path: %s", path)
		}

		if file.IsDir() {
			return os.MkdirAll(path, 0755)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}

		af, err := file.Open()
		if err != nil {
			return err
		}
		defer af.Close()

		out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
		if err != nil {
			return err
		}
		defer out.Close()

		_, err = io.Copy(out, af)
		return err
	}
}

// Extract all files from the given archive file to the given destination.
// The format is identified from the stream itself, so a mislabeled
// extension does not matter.
//
// Code based on https://stackoverflow.com/a/24792688/2737403
func ExtractFiles(ctx context.Context, src, dest string, ignoreIfMissing bool) error {
	if !PathExists(src) {
		if ignoreIfMissing {
			return nil
		}
		return fmt.Errorf("archive %s does not exist", src)
	}

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open archive %s: %w", src, err)
	}
	defer f.Close()

	format, archiveReader, err := archiver.Identify(filepath.Base(src), f)
	if errors.Is(err, archiver.ErrNoMatch) {
		return fmt.Errorf("%s is not a supported archive", src)
	} else if err != nil {
		return err
	}

	var input io.Reader = archiveReader
	if decom, ok := format.(archiver.Decompressor); ok {
		rc, err := decom.OpenReader(archiveReader)
		if err != nil {
			return err
		}
		defer rc.Close()
		input = rc
	}

	ex, ok := format.(archiver.Extractor)
	if !ok {
		return fmt.Errorf("unable to extract archive %s", src)
	}
	if err := ex.Extract(ctx, input, nil, extractHandler(dest)); err != nil {
		if errors.Is(err, context.Canceled) {
			// leave no half-extracted tree behind
			os.RemoveAll(dest)
			return err
		}
		return fmt.Errorf("unable to extract archive %s: %w", src, err)
	}
	return nil
}
