package ingest

import (
	"context"

	"github.com/okian/thunder/internal/domain/replay"
	"github.com/okian/thunder/pkg/logger"
	"github.com/okian/thunder/pkg/metrics"
)

// WorkbookSource loads a fresh batch from disk on every refresh.
type WorkbookSource struct {
	path      string
	seedsPath string
	parser    *Parser
	logger    logger.Logger
}

// SourceOption configures a WorkbookSource.
type SourceOption func(*WorkbookSource)

// WithSeedsFile adds a YAML seed file to every batch.
func WithSeedsFile(path string) SourceOption {
	return func(s *WorkbookSource) { s.seedsPath = path }
}

// WithParser overrides the workbook parser.
func WithParser(p *Parser) SourceOption {
	return func(s *WorkbookSource) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithSourceLogger sets the logger.
func WithSourceLogger(l logger.Logger) SourceOption {
	return func(s *WorkbookSource) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewWorkbookSource reads matches from the workbook at path.
func NewWorkbookSource(path string, opts ...SourceOption) *WorkbookSource {
	s := &WorkbookSource{
		path:   path,
		parser: NewParser(),
		logger: logger.Get().Named("ingest"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load implements replay.Source.
func (s *WorkbookSource) Load(ctx context.Context) (replay.Batch, error) {
	if err := ctx.Err(); err != nil {
		return replay.Batch{}, err
	}
	wb, err := s.parser.OpenWorkbook(ctx, s.path)
	if err != nil {
		return replay.Batch{}, err
	}
	batch := replay.Batch{Matches: wb.Matches, Issues: wb.Issues}

	if s.seedsPath != "" {
		seeds, issues, err := ReadSeedsFile(s.seedsPath)
		if err != nil {
			return replay.Batch{}, err
		}
		batch.Seeds = seeds
		batch.Issues = append(batch.Issues, issues...)
	}

	for _, is := range batch.Issues {
		metrics.RecordIngestIssue(is.Kind)
	}
	s.logger.Info(ctx, "workbook loaded",
		logger.String("path", s.path),
		logger.Int("seasons", len(wb.Seasons)),
		logger.Int("matches", len(batch.Matches)),
		logger.Int("seeds", len(batch.Seeds)),
		logger.Int("issues", len(batch.Issues)),
	)
	return batch, nil
}
