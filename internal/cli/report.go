package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"quiz-engine/internal/analytics"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/scoring"
)

// NewReportCmd prints quiz and question analytics.
func NewReportCmd(configPath *string) *cobra.Command {
	var quizID, format string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print analytics for a quiz",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), *configPath, func(b *backend) error {
				report, err := b.service(b.sessionStore()).QuizReport(cmd.Context(), quizID)
				if err != nil {
					return err
				}
				switch format {
				case "json":
					return analytics.WriteReportJSON(cmd.OutOrStdout(), report)
				case "csv":
					return analytics.WriteReportCSV(cmd.OutOrStdout(), report)
				}
				return fmt.Errorf("unknown format %q", format)
			})
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id")
	cmd.Flags().StringVar(&format, "format", "json", "json or csv")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}

// NewStatsCmd prints a learner's overall stats, or their standing on one quiz.
func NewStatsCmd(configPath *string) *cobra.Command {
	var userID, quizID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print learner statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), *configPath, func(b *backend) error {
				service := b.service(b.sessionStore())
				var (
					out any
					err error
				)
				if quizID != "" {
					out, err = service.Performance(cmd.Context(), userID, quizID)
				} else {
					out, err = service.UserStats(cmd.Context(), userID)
				}
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&quizID, "quiz", "", "rank the user on this quiz")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// NewGradeCmd records a manual grade for one pending result, given either
// as points or as the rubric criteria that were met.
func NewGradeCmd(configPath *string) *cobra.Command {
	var (
		attemptID  string
		questionID string
		points     float64
		criteria   string
		gradedBy   string
	)
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a result awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withBackend(ctx, *configPath, func(b *backend) error {
				grade := scoring.ManualGrade{Points: points, GradedBy: gradedBy}
				if criteria != "" {
					attempt, err := b.attempts.GetAttempt(ctx, attemptID)
					if err != nil {
						return err
					}
					quiz, err := b.quizCache.GetQuiz(ctx, attempt.QuizID)
					if err != nil {
						return err
					}
					q, _, ok := quiz.Questions.Find(questionID)
					if !ok {
						return fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, questionID)
					}
					if grade, err = scoring.RubricGrade(q, splitCriteria(criteria), gradedBy); err != nil {
						return err
					}
				}

				graded, err := b.service(b.sessionStore()).GradeAttempt(ctx, attemptID, map[string]scoring.ManualGrade{questionID: grade})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v/%v\t%d%%\t%s\n", graded.ID, graded.Score, graded.MaxScore, graded.Percentage, graded.GradingStatus)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&attemptID, "attempt", "", "attempt id")
	cmd.Flags().StringVar(&questionID, "question", "", "question id")
	cmd.Flags().Float64Var(&points, "points", 0, "points awarded")
	cmd.Flags().StringVar(&criteria, "criteria", "", "comma-separated rubric criteria that were met")
	cmd.Flags().StringVar(&gradedBy, "by", "", "reviewer name")
	_ = cmd.MarkFlagRequired("attempt")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

// splitCriteria turns "a, b,,c" into [a b c].
func splitCriteria(raw string) []string {
	var out []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
