package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/rubrix/internal/config"
	"github.com/abhisek/rubrix/internal/embedding"
	"github.com/abhisek/rubrix/internal/judge"
	"github.com/abhisek/rubrix/internal/llm"
	"github.com/abhisek/rubrix/internal/reference"
	"github.com/abhisek/rubrix/internal/scoring"
	"github.com/abhisek/rubrix/internal/store"
)

var scoreCmd = &cobra.Command{
	Use:   "score <exercise-id>",
	Short: "Score a submission against an exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		submission, err := readSubmission(cmd)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo())
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}

		svc := buildScoringService(st, provider, cfg)
		defer svc.Close()

		duration, _ := cmd.Flags().GetDuration("duration")
		expected, _ := cmd.Flags().GetDuration("expected-duration")
		clusterID, _ := cmd.Flags().GetString("cluster")

		result, err := svc.Score(ctx, &scoring.Request{
			ExerciseID:          args[0],
			Submission:          submission,
			Duration:            duration,
			ExpectedMinDuration: expected,
			ClusterID:           clusterID,
		})
		if err != nil {
			return err
		}

		printResult(result)
		return nil
	},
}

func init() {
	scoreCmd.Flags().String("submission", "", "Submission text (use --file to read from a file)")
	scoreCmd.Flags().String("file", "", "Read the submission from a file ('-' for stdin)")
	scoreCmd.Flags().Duration("duration", 0, "Time the learner spent, e.g. 3m20s")
	scoreCmd.Flags().Duration("expected-duration", 0, "Expected minimum time for this exercise")
	scoreCmd.Flags().String("cluster", "", "Skill cluster to record the score under")
}

func readSubmission(cmd *cobra.Command) (string, error) {
	if text, _ := cmd.Flags().GetString("submission"); text != "" {
		return text, nil
	}

	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		return "", fmt.Errorf("provide --submission or --file")
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = os.ReadFile("/dev/stdin")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read submission: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func openStore(cmd *cobra.Command, cfg *config.Config) (*store.Store, error) {
	dbPath := cfg.DBPath
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		dbPath = p
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
	} else if err := store.EnsureDir(dbPath); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

func buildScoringService(st *store.Store, provider llm.Provider, cfg *config.Config) *scoring.Service {
	embedder := embedding.WithCache(embedding.New(provider), cfg.EmbeddingCacheSize)

	refCfg := reference.DefaultConfig()
	refCfg.QualityThreshold = cfg.QualityThreshold
	refCfg.TopK = cfg.ReferenceTopK
	matcher := reference.NewMatcher(st.ReferenceRepo(), refCfg)

	svcCfg := scoring.DefaultConfig()
	svcCfg.Rubric.FuzzyMatching = cfg.FuzzyMatching
	svcCfg.Rubric.MatchThreshold = cfg.MatchThreshold
	svcCfg.Rubric.ScoreAutoCorrect = cfg.ScoreAutoCorrect
	svcCfg.ClusterQueueSize = cfg.ClusterQueueSize

	j := judge.New(provider, judge.DefaultConfig())

	return scoring.NewService(st.ExerciseRepo(), j, embedder, matcher, st.EventRepo(), nil, svcCfg)
}

func printResult(result *scoring.Result) {
	sep := strings.Repeat("─", 60)

	fmt.Printf("Exercise:    %s (%s)\n", result.Exercise.Title, result.Exercise.ID)
	fmt.Printf("Final score: %d / 100\n", result.Ensemble.FinalScore)
	fmt.Printf("Confidence:  %d (%s), expected range %.0f-%.0f\n",
		result.Ensemble.Confidence, result.Ensemble.ConfidenceBand,
		result.Ensemble.RangeLo, result.Ensemble.RangeHi)
	fmt.Printf("Agreement:   %d\n", result.Ensemble.Agreement)
	fmt.Printf("Risk:        %s\n", result.Integrity.RiskLevel)
	if len(result.Integrity.Flags) > 0 {
		fmt.Printf("Flags:       %s\n", strings.Join(result.Integrity.Flags, ", "))
	}

	fmt.Println(sep)
	fmt.Println("RUBRIC")
	names := make([]string, 0, len(result.Rubric.Breakdown))
	for name := range result.Rubric.Breakdown {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := result.Rubric.Breakdown[name]
		note := ""
		if c.Filled {
			note = " (not addressed by judge)"
		}
		fmt.Printf("  %-24s %5.1f / %-5.1f%s\n", name, c.PointsAwarded, c.MaxPoints, note)
	}
	agg := result.Rubric.Aggregation
	fmt.Printf("  %-24s %5.1f / %-5.1f (%.1f%%)\n", "total", agg.TotalAwarded, agg.TotalMax, agg.Percentage)
	for _, issue := range result.Rubric.Issues {
		fmt.Printf("  [%s] %s: %s\n", issue.Severity, issue.Type, issue.Message)
	}

	if result.References != nil && result.References.PoolSize > 0 {
		fmt.Println(sep)
		fmt.Println("REFERENCES")
		fmt.Printf("  Pool size:  %d", result.References.PoolSize)
		if result.References.UsedCrossExerciseFallback {
			fmt.Print(" (cross-exercise fallback)")
		}
		fmt.Println()
		fmt.Printf("  Best match: %.2f similarity\n", result.References.BestSimilarity)
		fmt.Printf("  Percentile: %d\n", result.References.Percentile)
	}

	if result.Judgment.Feedback != "" {
		fmt.Println(sep)
		fmt.Println("FEEDBACK")
		fmt.Println("  " + result.Judgment.Feedback)
	}

	if result.BankedAsReference {
		fmt.Println(sep)
		fmt.Println("Submission added to the reference bank.")
	}

	fmt.Printf("\n(scored in %s)\n", result.Elapsed.Round(time.Millisecond))
}
