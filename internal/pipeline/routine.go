// Package pipeline runs the fetch, summarize and emit routine in one process.
package pipeline

import (
	"context"
	"fmt"
	"io"

	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/common/observability"
	"agentkit-workers/internal/common/prompt"
	"agentkit-workers/internal/models"
	summarizerecords "agentkit-workers/internal/workers/ai/summarize-records"
	archiverecords "agentkit-workers/internal/workers/export/archive-records"
	exporttabular "agentkit-workers/internal/workers/export/export-tabular"
	publishresults "agentkit-workers/internal/workers/export/publish-results"
	fetchrecords "agentkit-workers/internal/workers/social/fetch-records"
)

const NoResultsMessage = "No tweets found for the given query."

// Steps are the handlers a routine can run. Only Fetch is required.
type Steps struct {
	Fetch     *fetchrecords.Handler
	Summarize *summarizerecords.Handler
	Export    *exporttabular.Handler
	Archive   *archiverecords.Handler
	Publish   *publishresults.Handler
}

type Routine struct {
	steps  Steps
	out    io.Writer
	logger logger.Logger
	obs    *observability.Observability
}

// New returns a routine that writes its human-readable output to out.
func New(steps Steps, out io.Writer, log logger.Logger) *Routine {
	return &Routine{
		steps:  steps,
		out:    out,
		logger: log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// WithObservability counts fetched records under the fetch task type.
func (r *Routine) WithObservability(obs *observability.Observability) *Routine {
	r.obs = obs
	return r
}

type RunOptions struct {
	Query models.SearchQuery

	Summarize   bool
	Template    string
	Values      map[string]interface{}
	Temperature *float64

	Export     bool
	ExportPath string
	Archive    bool
	Publish    bool
}

// Report is what one run produced. Results is nil when no summaries were requested.
type Report struct {
	Records    []models.RecordItem
	Results    []models.GenerationResult
	FetchError string
	ExportPath string
	Archived   int
	Published  int
}

// Run fetches once, then summarizes each record in order, then emits. Steps run
// strictly one after another. A failed fetch behaves like an empty result; a failed
// summary only affects its own record.
func (r *Routine) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	if err := r.check(opts); err != nil {
		return nil, err
	}

	if opts.Summarize {
		if _, err := r.steps.Summarize.Prepare(opts.Template, opts.Values); err != nil {
			return nil, err
		}
	}

	fetched, err := r.steps.Fetch.Execute(ctx, &fetchrecords.Input{
		Query:      opts.Query.Query,
		MaxResults: opts.Query.MaxResults,
		Fields:     opts.Query.Fields,
	})
	if err != nil {
		return nil, err
	}

	report := &Report{Records: fetched.Records, FetchError: fetched.FetchError}
	for range fetched.Records {
		r.obs.RecordRoutineItem(ctx, fetchrecords.TaskType, "fetched")
	}
	if fetched.FetchError != "" {
		fmt.Fprintln(r.out, fetched.FetchError)
	}
	if len(fetched.Records) == 0 {
		fmt.Fprintln(r.out, NoResultsMessage)
		return report, nil
	}

	if opts.Summarize {
		summarized, err := r.steps.Summarize.Execute(ctx, &summarizerecords.Input{
			Records:     fetched.Records,
			Template:    opts.Template,
			Values:      opts.Values,
			Temperature: opts.Temperature,
		})
		if err != nil {
			return report, err
		}
		report.Results = summarized.Results
	}

	r.print(report)

	if opts.Export {
		exported, err := r.steps.Export.Execute(ctx, &exporttabular.Input{
			Records: report.Records,
			Path:    opts.ExportPath,
		})
		if err != nil {
			return report, err
		}
		report.ExportPath = exported.Path
		fmt.Fprintf(r.out, "Saved %d tweets to %s\n", exported.Rows, exported.Path)
	}

	if opts.Archive {
		archived, err := r.steps.Archive.Execute(ctx, &archiverecords.Input{
			Records: report.Records,
			Results: report.Results,
		})
		if err != nil {
			return report, err
		}
		report.Archived = archived.Indexed
	}

	if opts.Publish && len(report.Results) > 0 {
		published, err := r.steps.Publish.Execute(ctx, &publishresults.Input{
			Records: report.Records,
			Results: report.Results,
		})
		if err != nil {
			return report, err
		}
		report.Published = published.Published
	}

	r.logger.Info("routine finished", map[string]interface{}{
		"query":     opts.Query.Query,
		"records":   len(report.Records),
		"exported":  report.ExportPath != "",
		"archived":  report.Archived,
		"published": report.Published,
	})
	return report, nil
}

func (r *Routine) check(opts RunOptions) error {
	if r.steps.Fetch == nil {
		return apperrors.NewConfigurationInvalidError("fetch step is not configured")
	}
	missing := func(name string) error {
		return apperrors.NewConfigurationInvalidError(name + " step requested but not configured")
	}
	if opts.Summarize && r.steps.Summarize == nil {
		return missing("summarize")
	}
	if opts.Export && r.steps.Export == nil {
		return missing("export")
	}
	if opts.Archive && r.steps.Archive == nil {
		return missing("archive")
	}
	if opts.Publish && r.steps.Publish == nil {
		return missing("publish")
	}
	if opts.Publish && !opts.Summarize {
		return apperrors.NewInvalidInputError("publishing requires summaries")
	}
	return nil
}

// print writes the 1-based record lines, each followed by its summary when there is one.
func (r *Routine) print(report *Report) {
	for i, rec := range report.Records {
		n := i + 1
		fmt.Fprintf(r.out, "Tweet %d: %s\n", n, rec.Text)
		if report.Results == nil {
			continue
		}
		res := report.Results[i]
		if res.OK() {
			fmt.Fprintf(r.out, "Summary of Tweet %d: %s\n", n, res.Text)
		} else {
			fmt.Fprintf(r.out, "Summary of Tweet %d failed: %s\n", n, res.Error)
		}
	}
}

// Analyze runs the market-analysis template over one text and its on-chain context.
func (r *Routine) Analyze(ctx context.Context, text string, onChainData interface{}, temperature *float64) (string, error) {
	if r.steps.Summarize == nil {
		return "", apperrors.NewConfigurationInvalidError("summarize step is not configured")
	}
	values := map[string]interface{}{prompt.PlaceholderOnChainData: onChainData}
	if onChainData == nil {
		values = nil
	}

	out, err := r.steps.Summarize.Execute(ctx, &summarizerecords.Input{
		Records:     []models.RecordItem{{ID: "analysis", Text: text}},
		Template:    prompt.Web3MarketAnalysis,
		Values:      values,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	res := out.Results[0]
	if !res.OK() {
		return "", apperrors.NewGenerationFailedError(fmt.Errorf("%s", res.Error))
	}
	fmt.Fprintln(r.out, res.Text)
	return res.Text, nil
}
