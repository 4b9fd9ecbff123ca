package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/rubrix/internal/catalog"
	"github.com/abhisek/rubrix/internal/cluster"
	"github.com/abhisek/rubrix/internal/config"
	"github.com/abhisek/rubrix/internal/store"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Derive skill-cluster insights from scoring history",
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

		events, err := st.EventRepo().ListScoring(ctx, store.QueryOpts{})
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No scoring history yet.")
			return nil
		}

		exercises, err := st.ExerciseRepo().List(ctx)
		if err != nil {
			return err
		}

		skillOf := make(map[string]string, len(exercises))
		perSkill := make(map[string]int)
		for _, ex := range exercises {
			skillOf[ex.ID] = ex.SkillCategory
			perSkill[ex.SkillCategory]++
		}

		// Replay oldest first so trends read chronologically.
		analyzer := cluster.NewAnalyzer()
		for i := len(events) - 1; i >= 0; i-- {
			e := events[i]
			skill := skillOf[e.ExerciseID]
			if skill == "" {
				continue
			}
			analyzer.Record(skill, skill, perSkill[skill], e.FinalScore)
		}

		related, err := relatedClusters(ctx, st, exercises)
		if err != nil {
			return err
		}

		insights := cluster.BuildInsights(analyzer.Snapshot(), related)
		if len(insights) == 0 {
			fmt.Println("Nothing notable yet; more attempts needed.")
			return nil
		}

		for _, in := range insights {
			fmt.Printf("[%s] %s\n", in.Kind, in.Message)
		}
		return nil
	},
}

// relatedClusters derives cross-skill recommendations by comparing one
// representative exercise per skill category. Exercises without a
// stored content embedding are skipped.
func relatedClusters(ctx context.Context, st *store.Store, exercises []*catalog.Exercise) (map[string][]cluster.Recommendation, error) {
	repo := st.ExerciseRepo()

	reps := make(map[string]*catalog.EmbeddingRecord)
	for _, ex := range exercises {
		if _, ok := reps[ex.SkillCategory]; ok {
			continue
		}
		rec, err := repo.EmbeddingRecord(ctx, ex.ID)
		if err != nil {
			return nil, err
		}
		if len(rec.ContentEmbedding) == 0 {
			continue
		}
		reps[ex.SkillCategory] = rec
	}

	related := make(map[string][]cluster.Recommendation)
	for skillA, recA := range reps {
		for skillB, recB := range reps {
			if skillA == skillB {
				continue
			}
			related[skillA] = append(related[skillA], cluster.Recommendation{
				ClusterID:    skillB,
				Skill:        skillB,
				Relationship: cluster.Relate(recA, recB),
			})
		}
	}
	return related, nil
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}
