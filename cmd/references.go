package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/rubrix/internal/config"
	"github.com/abhisek/rubrix/internal/llm"
	"github.com/abhisek/rubrix/internal/reference"
)

var referencesCmd = &cobra.Command{
	Use:   "references",
	Short: "Manage the reference answer bank",
}

var referencesAddCmd = &cobra.Command{
	Use:   "add <exercise-id>",
	Short: "Add a curated reference answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		text, _ := cmd.Flags().GetString("text")
		path, _ := cmd.Flags().GetString("file")
		score, _ := cmd.Flags().GetFloat64("score")
		verified, _ := cmd.Flags().GetBool("verified")

		if text == "" && path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read answer file: %w", err)
			}
			text = strings.TrimSpace(string(data))
		}
		if text == "" {
			return fmt.Errorf("provide --text or --file")
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

		ex, err := st.ExerciseRepo().Get(ctx, args[0])
		if err != nil {
			return err
		}

		provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo())
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}
		ctx = llm.WithPurpose(ctx, "reference-embedding")
		vecs, err := provider.Embed(ctx, []string{text})
		if err != nil {
			return fmt.Errorf("embed reference answer: %w", err)
		}

		refCfg := reference.DefaultConfig()
		refCfg.QualityThreshold = cfg.QualityThreshold
		matcher := reference.NewMatcher(st.ReferenceRepo(), refCfg)

		added, reason, err := matcher.AddReferenceAnswer(ctx, &reference.Answer{
			ExerciseID:     ex.ID,
			SubmissionText: text,
			Score:          score,
			Embedding:      vecs[0],
			SourceKind:     reference.SourceCurated,
			Verified:       verified,
			SkillCategory:  ex.SkillCategory,
			Difficulty:     ex.Difficulty,
		})
		if err != nil {
			return err
		}
		if !added {
			fmt.Println("Not added:", reason)
			return nil
		}
		fmt.Println("Reference answer added.")
		return nil
	},
}

var referencesListCmd = &cobra.Command{
	Use:   "list <exercise-id>",
	Short: "List active reference answers for an exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		answers, err := st.ReferenceRepo().FindByExercise(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(answers) == 0 {
			fmt.Println("No reference answers stored.")
			return nil
		}

		fmt.Printf("%-36s  %-6s  %-10s  %-18s  %s\n", "ID", "Score", "Verified", "Source", "Text")
		for _, a := range answers {
			text := a.SubmissionText
			if len(text) > 40 {
				text = text[:40] + "…"
			}
			fmt.Printf("%-36s  %-6.1f  %-10v  %-18s  %s\n",
				a.ID, a.Score, a.Verified, a.SourceKind, text)
		}
		return nil
	},
}

var referencesVerifyCmd = &cobra.Command{
	Use:   "verify <reference-id>",
	Short: "Mark a reference answer as verified",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.ReferenceRepo().MarkVerified(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Reference verified.")
		return nil
	},
}

var referencesDeactivateCmd = &cobra.Command{
	Use:   "deactivate <reference-id>",
	Short: "Remove a reference answer from the active pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.ReferenceRepo().Deactivate(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Reference deactivated.")
		return nil
	},
}

func init() {
	referencesAddCmd.Flags().String("text", "", "The reference answer text")
	referencesAddCmd.Flags().String("file", "", "Read the answer from a file")
	referencesAddCmd.Flags().Float64("score", 100, "Score this answer represents")
	referencesAddCmd.Flags().Bool("verified", false, "Mark the answer as verified")

	referencesCmd.AddCommand(referencesAddCmd)
	referencesCmd.AddCommand(referencesListCmd)
	referencesCmd.AddCommand(referencesVerifyCmd)
	referencesCmd.AddCommand(referencesDeactivateCmd)
}
