package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/felo/eml-parser/internal/parser"
	"github.com/felo/eml-parser/internal/scanner"
)

// Store is the part of the database the indexer writes to
type Store interface {
	EmailsExistBatch(filePaths []string) (map[string]bool, error)
	InsertParsed(filePath string, fileSize int64, p *parser.ParsedEmail) (int64, error)
}

// Indexer handles email indexing operations
type Indexer struct {
	store       Store
	parser      *parser.Parser
	scanner     *scanner.Scanner
	logger      *logrus.Logger
	concurrency int // Number of concurrent workers
}

// NewIndexer creates a new indexer for the message files below root
func NewIndexer(store Store, p *parser.Parser, root string, logger *logrus.Logger) *Indexer {
	if p == nil {
		p = parser.New()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Indexer{
		store:       store,
		parser:      p,
		scanner:     scanner.NewScanner(root),
		logger:      logger,
		concurrency: runtime.NumCPU() * 2, // 2x CPUs for I/O parallelism
	}
}

// WithConcurrency sets the number of concurrent workers
func (idx *Indexer) WithConcurrency(workers int) *Indexer {
	if workers < 1 {
		workers = 1
	}
	idx.concurrency = workers
	return idx
}

// WithExtensions sets the file extensions picked up by the scan
func (idx *Indexer) WithExtensions(extensions ...string) *Indexer {
	idx.scanner = scanner.NewScanner(idx.scanner.Root(), extensions...)
	return idx
}

// IndexResult contains statistics about an indexing operation
type IndexResult struct {
	TotalFound  int      `json:"totalFound"`
	NewIndexed  int      `json:"newIndexed"`
	Skipped     int      `json:"skipped"`
	Failed      int      `json:"failed"`
	FailedFiles []string `json:"failedFiles"`
}

// ProgressFunc is called once per processed file. Calls are serialized.
type ProgressFunc func(current, total int, filePath string)

// IndexAll scans and indexes all message files using concurrent workers
func (idx *Indexer) IndexAll(ctx context.Context) (*IndexResult, error) {
	return idx.IndexWithProgress(ctx, nil)
}

// IndexWithProgress indexes all files and reports progress via a callback.
// Files already in the store are skipped. A cancelled context stops new files
// from being dispatched; the partial result is returned with the context error.
func (idx *Indexer) IndexWithProgress(ctx context.Context, progress ProgressFunc) (*IndexResult, error) {
	files, err := idx.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan for files: %w", err)
	}

	result := &IndexResult{
		TotalFound:  len(files),
		FailedFiles: make([]string, 0),
	}

	existing, err := idx.store.EmailsExistBatch(files)
	if err != nil {
		return nil, fmt.Errorf("failed to check indexed files: %w", err)
	}

	pending := make([]string, 0, len(files))
	for _, file := range files {
		if existing[file] {
			result.Skipped++
			continue
		}
		pending = append(pending, file)
	}

	idx.logger.WithFields(logrus.Fields{
		"root":    idx.scanner.Root(),
		"found":   result.TotalFound,
		"pending": len(pending),
		"workers": idx.concurrency,
	}).Info("Indexing started")

	var mu sync.Mutex
	processed := result.Skipped
	record := func(filePath string, ok bool) {
		mu.Lock()
		defer mu.Unlock()

		processed++
		if ok {
			result.NewIndexed++
		} else {
			result.Failed++
			result.FailedFiles = append(result.FailedFiles, filePath)
		}
		if progress != nil {
			progress(processed, result.TotalFound, filePath)
		}
	}

	var g errgroup.Group
	g.SetLimit(idx.concurrency)

dispatch:
	for _, file := range pending {
		select {
		case <-ctx.Done():
			break dispatch
		default:
		}

		g.Go(func() error {
			record(file, idx.processFile(file))
			return nil
		})
	}
	_ = g.Wait()

	idx.logger.WithFields(logrus.Fields{
		"new":     result.NewIndexed,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}).Info("Indexing complete")

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("indexing cancelled: %w", err)
	}
	return result, nil
}

// processFile parses and stores one file and reports whether it succeeded
func (idx *Indexer) processFile(relPath string) bool {
	path := idx.scanner.Resolve(relPath)
	log := idx.logger.WithField("file", relPath)

	info, err := os.Stat(path)
	if err != nil {
		log.WithError(err).Error("Failed to stat file")
		return false
	}
	log = log.WithField("size", humanize.Bytes(uint64(info.Size())))

	parsed, err := idx.parser.ParseEMLFile(path)
	if errors.Is(err, parser.ErrTooDeeplyNested) {
		log.WithError(err).Warn("Rejected message")
		return false
	}
	if err != nil {
		log.WithError(err).Error("Failed to parse email")
		return false
	}

	id, err := idx.store.InsertParsed(relPath, info.Size(), parsed)
	if err != nil {
		log.WithError(err).Error("Failed to store email")
		return false
	}

	log.WithFields(logrus.Fields{
		"id":          id,
		"attachments": len(parsed.Attachments),
	}).Debug("Indexed email")
	return true
}
