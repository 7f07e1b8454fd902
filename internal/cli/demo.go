package cli

import (
	"log"

	"quiz-engine/internal/authoring"
	"quiz-engine/internal/domain"
)

const demoQuizID = "quiz-1"

// demoQuiz is the quiz the in-memory store starts with, so a server without
// a database can be tried right away.
func demoQuiz() domain.Quiz {
	author := authoring.NewAuthor()
	settings := domain.DefaultSettings()
	settings.TimeLimit = 10
	quiz := author.CreateQuiz(authoring.CreateInput{
		Title:    "Warm-up",
		Subject:  "math",
		OwnerID:  "demo",
		Settings: &settings,
	})
	quiz.ID = demoQuizID

	questions := []domain.Question{
		domain.MultipleChoice{
			QuestionBase:  domain.QuestionBase{ID: "q1", Prompt: "What is 2 + 2?", Difficulty: domain.DifficultyEasy, Points: 1, Topic: "arithmetic"},
			Options:       []domain.Option{{ID: "o1", Text: "3"}, {ID: "o2", Text: "4"}, {ID: "o3", Text: "5"}},
			CorrectAnswer: "o2",
		},
		domain.TrueFalse{
			QuestionBase:  domain.QuestionBase{ID: "q2", Prompt: "Zero is an even number.", Difficulty: domain.DifficultyEasy, Points: 1, Topic: "parity"},
			CorrectAnswer: true,
		},
		domain.Calculation{
			QuestionBase:  domain.QuestionBase{ID: "q3", Prompt: "A car drives 98 km/h for 4 hours. How far does it go?", Difficulty: domain.DifficultyMedium, Points: 2, Topic: "arithmetic"},
			CorrectAnswer: 392,
			Units:         "km",
		},
	}
	for _, q := range questions {
		var err error
		if quiz, err = author.AddQuestion(quiz, q); err != nil {
			log.Printf("demo quiz: %v", err)
			return quiz
		}
	}
	published, err := author.Publish(quiz)
	if err != nil {
		log.Printf("demo quiz: %v", err)
		return quiz
	}
	return published
}
