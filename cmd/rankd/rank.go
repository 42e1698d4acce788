package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/knoguchi/talentrank/internal/config"
	"github.com/knoguchi/talentrank/internal/memory"
	"github.com/knoguchi/talentrank/internal/service"
	"github.com/spf13/cobra"
)

var (
	rankJobID       string
	rankHistoryFile string
)

func init() {
	rankCmd.Flags().StringVar(&rankJobID, "job", "", "job id to use as query context")
	rankCmd.Flags().StringVar(&rankHistoryFile, "history", "", "JSON file with prior conversation turns ('-' for stdin)")
}

var rankCmd = &cobra.Command{
	Use:   "rank <query>",
	Short: "Rank candidates once and print the result as JSON",
	Long: `Run the ranking pipeline once against the configured backends.

Examples:
  # Plain query
  rankd rank "senior backend engineer with Go experience"

  # Scoped to a job, continuing a conversation
  rankd rank --job 6f1c... --history turns.json "only people in Berlin"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runRank(ctx, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func runRank(ctx context.Context, query string, stdin io.Reader, out io.Writer) error {
	req, err := buildRankRequest(query, rankJobID, rankHistoryFile, stdin)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a, err := buildApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.ranking.Rank(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// buildRankRequest parses the CLI inputs into a RankRequest.
func buildRankRequest(query, jobID, historyFile string, stdin io.Reader) (service.RankRequest, error) {
	req := service.RankRequest{Query: query}

	if jobID != "" {
		id, err := uuid.Parse(jobID)
		if err != nil {
			return req, fmt.Errorf("invalid --job: %w", err)
		}
		req.JobID = &id
	}

	if historyFile != "" {
		r := stdin
		if historyFile != "-" {
			f, err := os.Open(historyFile)
			if err != nil {
				return req, fmt.Errorf("failed to open history: %w", err)
			}
			defer f.Close()
			r = f
		}

		var history memory.History
		if err := json.NewDecoder(r).Decode(&history); err != nil {
			return req, fmt.Errorf("failed to parse history: %w", err)
		}
		req.History = history
	}

	return req, nil
}
