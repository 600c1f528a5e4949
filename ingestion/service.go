package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fabfab/herhaq/knowledge"
)

// Options controls chunking granularity.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
}

// Corpus is the loaded document collection in walk order together with the
// chunks derived from it.
type Corpus struct {
	Documents []knowledge.Document
	Chunks    []knowledge.Chunk
}

type Service struct {
	parsers map[DocumentFormat]DocumentParser
	opts    Options
	logger  zerolog.Logger
}

func NewService(opts Options, logger zerolog.Logger) *Service {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = defaultChunkOverlap
	}

	return &Service{
		parsers: defaultParsers(),
		opts:    opts,
		logger:  logger,
	}
}

// LoadDirectory reads every supported file below dir. Files that cannot be
// parsed are skipped, as are files byte-identical to one already loaded. A
// missing directory or an empty result is a *LoadError.
func (s *Service) LoadDirectory(ctx context.Context, dir string) (Corpus, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Corpus{}, &LoadError{Dir: dir, Err: err}
	}
	if !info.IsDir() {
		return Corpus{}, &LoadError{Dir: dir, Err: fmt.Errorf("not a directory")}
	}

	entries := make([]string, 0)
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if DetectFormat(path) == FormatUnknown {
			s.logger.Debug().Str("path", path).Msg("skip unsupported file")
			return nil
		}
		entries = append(entries, path)
		return nil
	}); err != nil {
		return Corpus{}, &LoadError{Dir: dir, Err: fmt.Errorf("walk data directory: %w", err)}
	}

	var corpus Corpus
	seen := make(map[string]string)
	for _, path := range entries {
		if err := ctx.Err(); err != nil {
			return Corpus{}, &LoadError{Dir: dir, Err: err}
		}

		doc, err := s.loadFile(ctx, dir, path)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("skip unreadable document")
			continue
		}

		if first, dup := seen[doc.SHA]; dup {
			s.logger.Warn().Str("path", doc.Path).Str("duplicate_of", first).Msg("skip duplicate document")
			continue
		}

		pieces := ChunkText(doc.Text, s.opts.ChunkSize, s.opts.ChunkOverlap)
		if len(pieces) == 0 {
			s.logger.Warn().Str("path", path).Msg("skip empty document")
			continue
		}

		seen[doc.SHA] = doc.Path
		corpus.Documents = append(corpus.Documents, doc)
		for idx, text := range pieces {
			corpus.Chunks = append(corpus.Chunks, knowledge.Chunk{
				ID:         knowledge.ChunkID(doc.ID, idx),
				DocumentID: doc.ID,
				Path:       doc.Path,
				Title:      doc.Title,
				Index:      idx,
				Ordinal:    len(corpus.Chunks),
				Text:       text,
			})
		}
		s.logger.Debug().Str("path", doc.Path).Str("format", doc.Format).Int("chunks", len(pieces)).Msg("loaded document")
	}

	if len(corpus.Documents) == 0 {
		return Corpus{}, &LoadError{Dir: dir, Err: ErrNoDocuments}
	}

	s.logger.Info().
		Str("dir", dir).
		Int("documents", len(corpus.Documents)).
		Int("chunks", len(corpus.Chunks)).
		Msg("corpus loaded")
	return corpus, nil
}

func (s *Service) loadFile(ctx context.Context, root, path string) (knowledge.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return knowledge.Document{}, fmt.Errorf("read file: %w", err)
	}

	relPath, relErr := filepath.Rel(root, path)
	if relErr != nil {
		relPath = path
	}
	relPath = filepath.ToSlash(relPath)

	format := DetectFormat(path)
	parser, ok := s.parsers[format]
	if !ok {
		return knowledge.Document{}, fmt.Errorf("no parser for format %q", format)
	}

	parsed, err := parser.Parse(ctx, DocumentPayload{Path: path, Data: data})
	if err != nil {
		return knowledge.Document{}, fmt.Errorf("parse %s: %w", format, err)
	}

	hash := sha256.Sum256(data)
	return knowledge.Document{
		ID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte(relPath)).String(),
		Path:   relPath,
		Title:  parsed.Title,
		Format: string(format),
		SHA:    hex.EncodeToString(hash[:]),
		Text:   parsed.Text,
	}, nil
}
