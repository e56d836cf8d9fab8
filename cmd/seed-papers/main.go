package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/exstem-grading/internal/config"
	"github.com/stemsi/exstem-grading/internal/database"
	"github.com/stemsi/exstem-grading/internal/logger"
	"github.com/stemsi/exstem-grading/internal/model"
	"github.com/stemsi/exstem-grading/internal/repository"
)

type seedQuestion struct {
	model.Question
	order int
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	const paperName = "Go Fundamentals (demo)"

	var existing int64
	err = pool.QueryRow(ctx, "SELECT id FROM papers WHERE name = $1 AND deleted_at IS NULL", paperName).Scan(&existing)
	if err == nil {
		fmt.Printf("Demo paper already exists with ID: %d\n", existing)
		return
	}
	if err != pgx.ErrNoRows {
		log.Fatal().Err(err).Msg("Failed to check existing paper")
	}

	questions := []seedQuestion{
		{model.Question{Type: model.QuestionTypeChoice, Title: "Which keyword starts a goroutine?\nA. async\nB. go\nC. spawn\nD. thread", Answer: "B", Weight: 5}, 1},
		{model.Question{Type: model.QuestionTypeChoice, Title: "Which types are reference-like?\nA. map\nB. int\nC. slice\nD. struct", Answer: "A,C", Multi: true, Weight: 5}, 2},
		{model.Question{Type: model.QuestionTypeJudge, Title: "A nil map can be read from without panicking.", Answer: "T", Weight: 3}, 3},
		{model.Question{Type: model.QuestionTypeJudge, Title: "Strings in Go are mutable.", Answer: "F", Weight: 3}, 4},
		{model.Question{Type: model.QuestionTypeText, Title: "Explain what a buffered channel is and when you would use one.", Answer: "A channel with capacity that lets sends proceed without a ready receiver until the buffer fills; useful to decouple producer and consumer rates.", Weight: 14}, 5},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var paperID int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO papers (name, description, duration) VALUES ($1, $2, $3) RETURNING id`,
		paperName, "Seeded paper covering every question type.", 30,
	).Scan(&paperID); err != nil {
		log.Fatal().Err(err).Msg("Failed to create paper")
	}

	for _, q := range questions {
		var questionID int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO questions (title, type, multi, answer) VALUES ($1, $2, $3, $4) RETURNING id`,
			q.Title, string(q.Type), q.Multi, q.Answer,
		).Scan(&questionID); err != nil {
			log.Fatal().Err(err).Msg("Failed to create question")
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO paper_questions (paper_id, question_id, score, sort_order) VALUES ($1, $2, $3, $4)`,
			paperID, questionID, q.Weight, q.order,
		); err != nil {
			log.Fatal().Err(err).Msg("Failed to attach question")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to commit seed")
	}

	paper, err := repository.NewPaperRepository(pool).GetPaperWithQuestions(ctx, paperID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read back paper")
	}
	fmt.Printf("Seed completed! Paper %d has %d questions worth %d points.\n", paper.ID, paper.QuestionCount, paper.TotalWeight)
}
