package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/rubrix/internal/catalog"
	"github.com/abhisek/rubrix/internal/config"
	"github.com/abhisek/rubrix/internal/llm"
	"github.com/abhisek/rubrix/internal/rubric"
)

var exerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Manage the exercise catalog",
}

// exerciseFile is the JSON shape `exercise add` reads.
type exerciseFile struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Prompt        string             `json:"prompt"`
	SkillCategory string             `json:"skill_category"`
	Difficulty    string             `json:"difficulty"`
	Exemplar      string             `json:"exemplar"`
	Rubric        []rubric.Criterion `json:"rubric"`
	Tags          []string           `json:"tags"`
}

var exerciseAddCmd = &cobra.Command{
	Use:   "add <file.json>",
	Short: "Add or update an exercise from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read exercise file: %w", err)
		}

		var ef exerciseFile
		if err := json.Unmarshal(data, &ef); err != nil {
			return fmt.Errorf("parse exercise file: %w", err)
		}
		if ef.ID == "" || ef.Prompt == "" || len(ef.Rubric) == 0 {
			return fmt.Errorf("exercise needs at least id, prompt, and rubric")
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

		ex := &catalog.Exercise{
			ID:            ef.ID,
			Title:         ef.Title,
			Prompt:        ef.Prompt,
			SkillCategory: ef.SkillCategory,
			Difficulty:    catalog.Difficulty(ef.Difficulty),
			Exemplar:      ef.Exemplar,
			Rubric:        ef.Rubric,
		}

		// Content embedding powers cross-exercise similarity. The
		// exercise is still usable for scoring without one.
		var embedding []float64
		provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo())
		if err != nil {
			fmt.Fprintln(os.Stderr, "warning: no LLM provider, skipping content embedding:", err)
		} else {
			ctx = llm.WithPurpose(ctx, "exercise-embedding")
			vecs, err := provider.Embed(ctx, []string{ef.Prompt + "\n" + ef.Exemplar})
			if err != nil {
				fmt.Fprintln(os.Stderr, "warning: content embedding failed:", err)
			} else {
				embedding = vecs[0]
			}
		}

		if err := st.ExerciseRepo().Put(ctx, ex, embedding, ef.Tags); err != nil {
			return err
		}

		fmt.Printf("Stored exercise %s (%s, %d rubric criteria, %.0f points)\n",
			ex.ID, ex.SkillCategory, len(ex.Rubric), ex.TotalPoints())
		return nil
	},
}

var exerciseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored exercises",
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

		exercises, err := st.ExerciseRepo().List(cmd.Context())
		if err != nil {
			return err
		}
		if len(exercises) == 0 {
			fmt.Println("No exercises stored.")
			return nil
		}

		fmt.Printf("%-16s  %-30s  %-14s  %-8s  %s\n", "ID", "Title", "Skill", "Level", "Points")
		for _, ex := range exercises {
			title := ex.Title
			if len(title) > 30 {
				title = title[:30]
			}
			fmt.Printf("%-16s  %-30s  %-14s  %-8s  %.0f\n",
				ex.ID, title, ex.SkillCategory, ex.Difficulty, ex.TotalPoints())
		}
		return nil
	},
}

func init() {
	exerciseCmd.AddCommand(exerciseAddCmd)
	exerciseCmd.AddCommand(exerciseListCmd)
}
