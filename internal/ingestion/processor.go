package ingestion

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/histblame/internal/models"
	"github.com/rohankatakam/histblame/internal/temporal"
)

// HistorySource returns the raw `git log --follow --stat` text for a file
type HistorySource interface {
	FileHistory(ctx context.Context, filePath string) (string, error)
}

// ExistenceChecker reports whether a path is still in the working tree
type ExistenceChecker interface {
	Exists(filePath string) (bool, error)
}

// ProgressFunc is called before each file is processed. index is 1-based.
type ProgressFunc func(index, total int, filePath string)

// ProcessorConfig holds configuration for repository processing
type ProcessorConfig struct {
	Ignore   []string     // Basenames skipped entirely
	Progress ProgressFunc // Optional progress reporter
}

// Processor drives the per-file aggregation over every changed file
type Processor struct {
	history HistorySource
	exists  ExistenceChecker
	ignore  map[string]bool
	config  ProcessorConfig
	logger  logrus.FieldLogger
}

// NewProcessor creates a new repository processor
func NewProcessor(history HistorySource, exists ExistenceChecker, config ProcessorConfig, logger logrus.FieldLogger) *Processor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	ignore := make(map[string]bool, len(config.Ignore))
	for _, name := range config.Ignore {
		ignore[name] = true
	}

	return &Processor{
		history: history,
		exists:  exists,
		ignore:  ignore,
		config:  config,
		logger:  logger,
	}
}

// Accumulator carries the running repository totals through the fold
type Accumulator struct {
	TotalAdded   int
	TotalDeleted int
	Ledger       []models.LedgerEntry
}

// Add returns a new accumulator with the file result folded in. The ledger
// may share its backing array with a, so a must not be used afterwards.
func (a Accumulator) Add(r temporal.FileResult) Accumulator {
	return Accumulator{
		TotalAdded:   a.TotalAdded + r.SumAdded,
		TotalDeleted: a.TotalDeleted + r.SumDeleted,
		Ledger:       append(a.Ledger, r.Entries...),
	}
}

// Totals returns the repository totals of the accumulated files
func (a Accumulator) Totals() models.Totals {
	return models.NewTotals(a.TotalAdded, a.TotalDeleted)
}

// ProcessResult holds results from processing a repository
type ProcessResult struct {
	Totals       models.Totals
	Ledger       []models.LedgerEntry
	FilesTotal   int
	FilesIgnored int
	FilesDeleted int
	Duration     time.Duration
}

// Run processes paths in order, one at a time. Any history or parse
// failure aborts the run and no partial result is returned.
func (p *Processor) Run(ctx context.Context, paths []string) (*ProcessResult, error) {
	startTime := time.Now()

	var kept []string
	ignored := 0
	for _, filePath := range paths {
		if p.ignore[path.Base(filePath)] {
			p.logger.WithField("file", filePath).Debug("skipping ignored file")
			ignored++
			continue
		}
		kept = append(kept, filePath)
	}

	p.logger.WithFields(logrus.Fields{
		"files":   len(kept),
		"ignored": ignored,
	}).Info("computing per-file ownership")

	var acc Accumulator
	deleted := 0
	for i, filePath := range kept {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if p.config.Progress != nil {
			p.config.Progress(i+1, len(kept), filePath)
		}

		result, err := p.processFile(ctx, filePath)
		if err != nil {
			return nil, err
		}
		if result.Deleted() {
			deleted++
		}

		acc = acc.Add(result)
	}

	result := &ProcessResult{
		Totals:       acc.Totals(),
		Ledger:       acc.Ledger,
		FilesTotal:   len(kept),
		FilesIgnored: ignored,
		FilesDeleted: deleted,
		Duration:     time.Since(startTime),
	}

	p.logger.WithFields(logrus.Fields{
		"duration":      result.Duration,
		"files":         result.FilesTotal,
		"deleted":       result.FilesDeleted,
		"total_added":   result.Totals.TotalAdded,
		"total_deleted": result.Totals.TotalDeleted,
	}).Info("per-file ownership complete")

	return result, nil
}

// processFile computes one file's result. Deleted files are never parsed.
func (p *Processor) processFile(ctx context.Context, filePath string) (temporal.FileResult, error) {
	exists, err := p.exists.Exists(filePath)
	if err != nil {
		return temporal.FileResult{}, fmt.Errorf("failed to check %s: %w", filePath, err)
	}
	if !exists {
		p.logger.WithField("file", filePath).Debug("file deleted from working tree")
		return temporal.DeletedFile(filePath), nil
	}

	output, err := p.history.FileHistory(ctx, filePath)
	if err != nil {
		return temporal.FileResult{}, err
	}

	records, err := temporal.ParseFileHistory(filePath, output)
	if err != nil {
		return temporal.FileResult{}, err
	}

	result := temporal.AggregateFile(filePath, records)
	p.logger.WithFields(logrus.Fields{
		"file":    filePath,
		"commits": len(records),
		"authors": len(result.Entries),
		"changes": result.SumOfTotalChanges,
	}).Debug("file aggregated")

	return result, nil
}
