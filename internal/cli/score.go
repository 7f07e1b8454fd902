package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quiz-engine/internal/authoring"
	"quiz-engine/internal/scoring"
)

// NewScoreCmd grades an answers file against an exported quiz document
// without touching any store.
func NewScoreCmd(configPath *string) *cobra.Command {
	var quizFile, answersFile string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score answers against a quiz document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(quizFile)
			if err != nil {
				return err
			}
			quiz, err := authoring.NewAuthor().ImportJSON(data, "")
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(answersFile)
			if err != nil {
				return err
			}
			var answers map[string]any
			if err := json.Unmarshal(raw, &answers); err != nil {
				return fmt.Errorf("decode answers: %w", err)
			}

			result := scoring.NewEngine(scoring.WithPolicy(cfg.ScoringPolicy())).CalculateQuizScore(quiz, answers)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&quizFile, "quiz", "", "quiz document (JSON export with answer keys)")
	cmd.Flags().StringVar(&answersFile, "answers", "", "JSON object of question id to answer")
	_ = cmd.MarkFlagRequired("quiz")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}
