package fs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
)

type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

type FileInfo struct {
	Path string
	Mode domain.Mode
	Size int64
}

func (w *Walker) Walk(root string) ([]FileInfo, error) {
	var files []FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {

			relPath, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if w.shouldExclude(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, FileInfo{
				Path: path,
				Mode: DetectMode(path),
				Size: info.Size(),
			})
		}

		return nil
	})

	return files, err
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// DetectMode maps a file extension to the ingestion modality that
// handles it. Unrecognized extensions are treated as plain text.
func DetectMode(path string) domain.Mode {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return domain.ModePDF
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp":
		return domain.ModeImage
	case ".mp3", ".wav", ".m4a", ".flac", ".ogg":
		return domain.ModeAudio
	case ".mp4", ".mkv", ".mov", ".avi", ".webm":
		return domain.ModeVideo
	case ".csv":
		return domain.ModeSQL
	default:
		return domain.ModeNormal
	}
}

func ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
