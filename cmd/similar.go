package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/rubrix/internal/cluster"
	"github.com/abhisek/rubrix/internal/config"
)

var similarCmd = &cobra.Command{
	Use:   "similar <exercise-a> <exercise-b>",
	Short: "Compare two exercises and classify their relationship",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		repo := st.ExerciseRepo()
		a, err := repo.EmbeddingRecord(ctx, args[0])
		if err != nil {
			return err
		}
		b, err := repo.EmbeddingRecord(ctx, args[1])
		if err != nil {
			return err
		}

		sim := cluster.ExerciseSimilarity(a, b)
		rel := cluster.Relate(a, b)

		fmt.Printf("%s vs %s\n", a.ExerciseID, b.ExerciseID)
		fmt.Printf("  Overall:      %.3f\n", sim.Overall)
		fmt.Printf("  Content:      %.3f\n", sim.Content)
		fmt.Printf("  Skill:        %.3f  (%s / %s)\n", sim.Skill, a.SkillCategory, b.SkillCategory)
		fmt.Printf("  Difficulty:   %.3f  (%s / %s)\n", sim.Difficulty, a.Difficulty, b.Difficulty)
		fmt.Printf("  Relationship: %s\n", rel)
		return nil
	},
}
