package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/imgpress/internal/mediatype"
)

// Source is a discovered input image. The payload stays on disk until
// the runner reaches it, so a large batch never holds more than one
// image in memory.
type Source struct {
	// Path is the absolute path to the file on disk.
	Path string
	// RelPath is the forward-slash path relative to the scan root; for
	// single-file intake it is the base name.
	RelPath string
	// Name is the base file name, used for captions and output stems.
	Name string
	// Type is the media type guessed from the extension. The runner
	// re-checks it against the payload's magic bytes.
	Type mediatype.Type
	// Size is the file size in bytes.
	Size int64
}

// Scan walks inputDir and returns every file whose extension is on the
// intake allow-list. Hidden files and directories are skipped.
func Scan(inputDir string) ([]Source, error) {
	exts := mediatype.ScanExtensions()
	var sources []Source

	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && info.Name() != "." {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		relPath, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}

		sources = append(sources, Source{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Name:    info.Name(),
			Type:    mediatype.FromPath(path),
			Size:    info.Size(),
		})
		return nil
	})

	return sources, err
}

// FromFile builds a Source for one explicitly named file.
func FromFile(path string) (Source, error) {
	t := mediatype.FromPath(path)
	if t == mediatype.Unknown {
		return Source{}, fmt.Errorf("unsupported file type: %s", filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return Source{}, err
	}
	if info.IsDir() {
		return Source{}, fmt.Errorf("%s is a directory", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Source{}, err
	}

	return Source{
		Path:    abs,
		RelPath: info.Name(),
		Name:    info.Name(),
		Type:    t,
		Size:    info.Size(),
	}, nil
}
