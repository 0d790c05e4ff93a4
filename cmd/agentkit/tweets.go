// cmd/agentkit/tweets.go
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"agentkit-workers/internal/app"
	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/models"
	"agentkit-workers/internal/pipeline"
)

type searchFlags struct {
	query      string
	maxResults int
	csv        bool
	output     string
	archive    bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "search query (required)")
	cmd.Flags().IntVar(&f.maxResults, "max", 10, "maximum number of tweets to fetch")
	cmd.Flags().BoolVar(&f.csv, "csv", false, "also save the tweets as CSV")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "CSV path (default from export.path)")
	cmd.Flags().BoolVar(&f.archive, "archive", false, "index tweets and summaries into elasticsearch")
	_ = cmd.MarkFlagRequired("query")
}

func (f *searchFlags) options() pipeline.RunOptions {
	return pipeline.RunOptions{
		Query:      models.SearchQuery{Query: f.query, MaxResults: f.maxResults},
		Export:     f.csv,
		ExportPath: f.output,
		Archive:    f.archive,
	}
}

func newFetchCmd(s *session) *cobra.Command {
	flags := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch recent tweets and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			routine, err := s.services.Routine(cmd.Context(), app.RoutineSteps{Archive: flags.archive}, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = routine.Run(cmd.Context(), flags.options())
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newSummarizeCmd(s *session) *cobra.Command {
	flags := &searchFlags{}
	var (
		template    string
		temperature float64
		values      map[string]string
		publish     bool
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Fetch recent tweets and summarize each one",
		RunE: func(cmd *cobra.Command, args []string) error {
			routine, err := s.services.Routine(cmd.Context(), app.RoutineSteps{
				Summarize: true,
				Archive:   flags.archive,
				Publish:   publish,
			}, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			opts := flags.options()
			opts.Summarize = true
			opts.Template = template
			opts.Publish = publish
			if cmd.Flags().Changed("temperature") {
				opts.Temperature = &temperature
			}
			if len(values) > 0 {
				opts.Values = make(map[string]interface{}, len(values))
				for k, v := range values {
					opts.Values[k] = v
				}
			}
			_, err = routine.Run(cmd.Context(), opts)
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&template, "template", "", "built-in template name or template text (default tweet-summary)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "sampling temperature (default from genai.temperature)")
	cmd.Flags().StringToStringVar(&values, "value", nil, "extra placeholder bindings, key=value")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish each summary to the SNS topic")
	return cmd
}

func newAnalyzeCmd(s *session) *cobra.Command {
	var (
		text        string
		onChainData string
		temperature float64
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the Web3 market analysis over one text and its on-chain data",
		RunE: func(cmd *cobra.Command, args []string) error {
			var data interface{}
			if onChainData != "" {
				if err := json.Unmarshal([]byte(onChainData), &data); err != nil {
					return apperrors.NewInvalidInputError(fmt.Sprintf("--on-chain-data is not valid JSON: %v", err))
				}
			}

			summarize, err := s.services.SummarizeHandler()
			if err != nil {
				return err
			}
			routine := pipeline.New(pipeline.Steps{Summarize: summarize}, cmd.OutOrStdout(), s.log)

			var temp *float64
			if cmd.Flags().Changed("temperature") {
				temp = &temperature
			}
			_, err = routine.Analyze(cmd.Context(), text, data, temp)
			return err
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "tweet text to analyze (required)")
	cmd.Flags().StringVar(&onChainData, "on-chain-data", "", `on-chain context as JSON, e.g. '{"BTC":"64000 USD"}'`)
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "sampling temperature (default from genai.temperature)")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
