package cli

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/histblame/internal/git"
	"github.com/rohankatakam/histblame/internal/ingestion"
	"github.com/rohankatakam/histblame/internal/metrics"
	"github.com/rohankatakam/histblame/internal/models"
	"github.com/rohankatakam/histblame/internal/resolution"
	"github.com/rohankatakam/histblame/internal/storage"
)

// ComputeOptions select the repository and files for the compute stage
type ComputeOptions struct {
	RepoPath string
	SinceRev string

	// When false, file histories only include commits reachable from SinceRev
	IncludeCommitsAfterRev bool

	Ignore   []string
	Progress ingestion.ProgressFunc
	Runner   git.Runner // nil uses the git binary
}

// Summary describes everything a full run produced
type Summary struct {
	Compute   *ingestion.ProcessResult
	Groups    []models.AuthorGroup
	Teams     *models.TeamReport
	Documents int
}

// Pipeline runs the ownership stages against one document store. Every
// stage computes all of its documents before writing them in one batch.
type Pipeline struct {
	store  storage.Store
	logger logrus.FieldLogger
}

// NewPipeline creates a pipeline writing to store
func NewPipeline(store storage.Store, logger logrus.FieldLogger) *Pipeline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{store: store, logger: logger}
}

func (p *Pipeline) compute(ctx context.Context, opts ComputeOptions) (*ingestion.ProcessResult, error) {
	var gitOpts []git.Option
	if opts.Runner != nil {
		gitOpts = append(gitOpts, git.WithRunner(opts.Runner))
	}
	if !opts.IncludeCommitsAfterRev {
		gitOpts = append(gitOpts, git.WithHistoryRev(opts.SinceRev))
	}
	client := git.NewClient(opts.RepoPath, gitOpts...)

	if err := client.DetectGitRepo(ctx); err != nil {
		p.logger.WithError(err).WithField("repo", opts.RepoPath).Debug("repository detection failed")
		return nil, FormatNotGitRepoError(opts.RepoPath)
	}

	paths, err := client.ChangedFiles(ctx, opts.SinceRev)
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"since": opts.SinceRev,
		"files": len(paths),
	}
	if head, err := client.HeadSHA(ctx); err != nil {
		p.logger.WithError(err).Debug("could not resolve HEAD")
	} else {
		fields["head"] = head
	}
	p.logger.WithFields(fields).Info("collected changed files")

	processor := ingestion.NewProcessor(client, client, ingestion.ProcessorConfig{
		Ignore:   opts.Ignore,
		Progress: opts.Progress,
	}, p.logger)

	return processor.Run(ctx, paths)
}

// RunCompute writes the ledger and the repository totals
func (p *Pipeline) RunCompute(ctx context.Context, opts ComputeOptions) (*ingestion.ProcessResult, error) {
	result, err := p.compute(ctx, opts)
	if err != nil {
		return nil, err
	}

	batch := storage.NewBatch()
	if err := batch.PutLedger(result.Ledger); err != nil {
		return nil, err
	}
	if err := batch.PutTotals(result.Totals); err != nil {
		return nil, err
	}
	if err := p.store.Write(ctx, batch); err != nil {
		return nil, err
	}

	return result, nil
}

// RunGroup reads the compute documents and writes the per-author summary
func (p *Pipeline) RunGroup(ctx context.Context) ([]models.AuthorGroup, error) {
	ledger, err := storage.ReadLedger(ctx, p.store)
	if err != nil {
		return nil, missingInput(err, "compute")
	}
	totals, err := storage.ReadTotals(ctx, p.store)
	if err != nil {
		return nil, missingInput(err, "compute")
	}

	groups := metrics.GroupByAuthor(ledger, totals.TotalChanged)
	p.logger.WithField("authors", len(groups)).Info("grouped ownership by author")

	batch := storage.NewBatch()
	if err := batch.PutGroups(groups); err != nil {
		return nil, err
	}
	if err := p.store.Write(ctx, batch); err != nil {
		return nil, err
	}

	return groups, nil
}

// RunTeamify reads the per-author summary and writes the team documents
func (p *Pipeline) RunTeamify(ctx context.Context, directory []models.Teammate) (*models.TeamReport, error) {
	groups, err := storage.ReadGroups(ctx, p.store)
	if err != nil {
		return nil, missingInput(err, "group")
	}

	report := resolution.Teamify(groups, directory)
	p.logTeams(report)

	batch := storage.NewBatch()
	if err := batch.PutTeams(report); err != nil {
		return nil, err
	}
	if err := p.store.Write(ctx, batch); err != nil {
		return nil, err
	}

	return report, nil
}

// Run executes compute, group and teamify in memory and writes every
// document in a single batch
func (p *Pipeline) Run(ctx context.Context, opts ComputeOptions, directory []models.Teammate) (*Summary, error) {
	result, err := p.compute(ctx, opts)
	if err != nil {
		return nil, err
	}

	groups := metrics.GroupByAuthor(result.Ledger, result.Totals.TotalChanged)
	p.logger.WithField("authors", len(groups)).Info("grouped ownership by author")

	report := resolution.Teamify(groups, directory)
	p.logTeams(report)

	batch := storage.NewBatch()
	if err := batch.PutLedger(result.Ledger); err != nil {
		return nil, err
	}
	if err := batch.PutTotals(result.Totals); err != nil {
		return nil, err
	}
	if err := batch.PutGroups(groups); err != nil {
		return nil, err
	}
	if err := batch.PutTeams(report); err != nil {
		return nil, err
	}
	if err := p.store.Write(ctx, batch); err != nil {
		return nil, err
	}

	return &Summary{
		Compute:   result,
		Groups:    groups,
		Teams:     report,
		Documents: batch.Len(),
	}, nil
}

func (p *Pipeline) logTeams(report *models.TeamReport) {
	matched := 0
	for _, a := range report.Authors {
		if a.Team != nil {
			matched++
		}
	}
	p.logger.WithFields(logrus.Fields{
		"teams":     len(report.ByTeam),
		"matched":   matched,
		"unmatched": len(report.Authors) - matched,
	}).Info("rolled ownership up to teams")
}
