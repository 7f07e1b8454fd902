package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quiz-engine/internal/authoring"
)

// NewImportCmd stores a quiz document as a new quiz.
func NewImportCmd(configPath *string) *cobra.Command {
	var (
		file    string
		owner   string
		publish bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a quiz document",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			author := authoring.NewAuthor()
			quiz, err := author.ImportJSON(data, owner)
			if err != nil {
				return err
			}
			if publish {
				if quiz, err = author.Publish(quiz); err != nil {
					return err
				}
			}
			return withBackend(cmd.Context(), *configPath, func(b *backend) error {
				if err := b.quizzes.SaveQuiz(cmd.Context(), quiz); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d questions\n", quiz.ID, quiz.Status, len(quiz.Questions))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "quiz document to import")
	cmd.Flags().StringVar(&owner, "owner", "", "owner of the new quiz")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish the quiz after import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// NewExportCmd writes a stored quiz as a JSON document or a CSV question list.
func NewExportCmd(configPath *string) *cobra.Command {
	var (
		quizID  string
		answers bool
		format  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a quiz",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), *configPath, func(b *backend) error {
				quiz, err := b.quizzes.LoadQuiz(cmd.Context(), quizID)
				if err != nil {
					return err
				}
				switch format {
				case "json":
					data, err := authoring.ExportJSON(quiz, answers)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return err
				case "csv":
					return authoring.ExportQuestionsCSV(cmd.OutOrStdout(), quiz)
				}
				return fmt.Errorf("unknown format %q", format)
			})
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id")
	cmd.Flags().BoolVar(&answers, "answers", false, "include answer keys (json only)")
	cmd.Flags().StringVar(&format, "format", "json", "json or csv")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}
