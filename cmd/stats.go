package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/rubrix/internal/config"
	"github.com/abhisek/rubrix/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated scoring statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("recent")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		repo := st.EventRepo()

		stats, err := repo.Stats(ctx, store.QueryOpts{})
		if err != nil {
			return err
		}

		if stats.Total == 0 {
			fmt.Println("No scoring events recorded.")
			return nil
		}

		fmt.Printf("Scoring runs:   %d\n", stats.Total)
		fmt.Printf("Average score:  %.1f\n", stats.AvgScore)
		fmt.Printf("Avg confidence: %.1f\n", stats.AvgConfidence)
		fmt.Printf("Flagged:        %d\n", stats.Flagged)
		fmt.Printf("High risk:      %d\n", stats.HighRisk)
		fmt.Printf("Used fallback:  %d\n", stats.FallbackScored)

		if limit <= 0 {
			return nil
		}

		events, err := repo.ListScoring(ctx, store.QueryOpts{Limit: limit})
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Printf("%-19s  %-16s  %-6s  %-6s  %-8s  %s\n",
			"Timestamp", "Exercise", "Score", "Conf", "Risk", "Flags")
		fmt.Println(strings.Repeat("─", 80))
		for _, e := range events {
			fmt.Printf("%-19s  %-16s  %-6.0f  %-6.0f  %-8s  %s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.ExerciseID,
				e.FinalScore,
				e.Confidence,
				e.RiskLevel,
				strings.Join(e.IntegrityFlags, ","),
			)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("recent", 10, "Also list the N most recent scoring runs (0 to hide)")
}
