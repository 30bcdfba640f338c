package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID              string           `bun:"id,pk"`
	ClassID         string           `bun:"class_id"`
	CreatedBy       string           `bun:"created_by"`
	Name            string           `bun:"name"`
	Description     string           `bun:"description"`
	QuestionIDs     []string         `bun:"question_ids,type:jsonb"`
	TestDate        time.Time        `bun:"test_date"`
	DurationMinutes int              `bun:"duration_minutes"`
	StartTime       time.Time        `bun:"start_time"`
	EndTime         time.Time        `bun:"end_time"`
	Leaderboard     []domain.Attempt `bun:"leaderboard,type:jsonb"`
	Version         int64            `bun:"version"`
	CreatedAt       time.Time        `bun:"created_at"`
	UpdatedAt       time.Time        `bun:"updated_at"`
}

// QuizStore keeps quizzes and their leaderboards in Postgres. Saves are
// guarded by the version column.
type QuizStore struct {
	db *bun.DB
}

func NewQuizStore(db *bun.DB) *QuizStore {
	return &QuizStore{db: db}
}

func (s *QuizStore) FindQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var row quizRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", quizID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("find quiz: %w", err)
	}
	return row.toDomain(), nil
}

func (s *QuizStore) ListQuizzesByClass(ctx context.Context, classID string) ([]domain.Quiz, error) {
	var rows []quizRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("class_id = ?", classID).
		OrderExpr("test_date DESC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if quiz.Version == 0 {
		quiz.Version = 1
	}
	row := newQuizRow(quiz)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return row.toDomain(), nil
}

func (s *QuizStore) SaveQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	row := newQuizRow(quiz)
	row.Version = quiz.Version + 1

	res, err := s.db.NewUpdate().
		Model(&row).
		Column("name", "description", "question_ids", "test_date", "duration_minutes",
			"start_time", "end_time", "leaderboard", "version", "updated_at").
		Where("id = ?", quiz.ID).
		Where("version = ?", quiz.Version).
		Exec(ctx)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	if n == 0 {
		exists, err := s.db.NewSelect().Model((*quizRow)(nil)).Where("id = ?", quiz.ID).Exists(ctx)
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("check quiz: %w", err)
		}
		if !exists {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, domain.ErrVersionConflict
	}
	return row.toDomain(), nil
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, quizID string) error {
	res, err := s.db.NewDelete().Model((*quizRow)(nil)).Where("id = ?", quizID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func newQuizRow(q domain.Quiz) quizRow {
	row := quizRow{
		ID:              q.ID,
		ClassID:         q.ClassID,
		CreatedBy:       q.CreatedBy,
		Name:            q.Name,
		Description:     q.Description,
		QuestionIDs:     q.QuestionIDs,
		TestDate:        q.TestDate,
		DurationMinutes: q.DurationMinutes,
		StartTime:       q.StartTime,
		EndTime:         q.EndTime,
		Leaderboard:     q.Leaderboard,
		Version:         q.Version,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
	// jsonb columns are NOT NULL
	if row.QuestionIDs == nil {
		row.QuestionIDs = []string{}
	}
	if row.Leaderboard == nil {
		row.Leaderboard = []domain.Attempt{}
	}
	return row
}

func (r quizRow) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:              r.ID,
		ClassID:         r.ClassID,
		CreatedBy:       r.CreatedBy,
		Name:            r.Name,
		Description:     r.Description,
		QuestionIDs:     r.QuestionIDs,
		TestDate:        r.TestDate,
		DurationMinutes: r.DurationMinutes,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Leaderboard:     r.Leaderboard,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
