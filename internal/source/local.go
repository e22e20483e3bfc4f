package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"docsync-rag/internal/models"
	"docsync-rag/internal/parser"
)

// LocalSource lists parseable files in a single documents directory.
// The file name doubles as the document ID; the modification marker is
// the file's mtime rendered as a fixed-width decimal so string
// comparison orders it correctly.
type LocalSource struct {
	dir string
}

func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{dir: dir}
}

func (s *LocalSource) List(ctx context.Context) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", models.ErrSourceUnavailable, s.dir, err)
	}

	var docs []models.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if !parser.Supported(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping unreadable file")
			continue
		}

		content, err := parser.Parse(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Error reading file content")
			content = ""
		}

		docs = append(docs, models.Document{
			ID:       entry.Name(),
			Name:     entry.Name(),
			Modified: fmt.Sprintf("%020d", info.ModTime().Unix()),
			Content:  content,
		})
	}
	return docs, nil
}
