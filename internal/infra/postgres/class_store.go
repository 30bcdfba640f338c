package postgres

import (
	"context"
	"errors"
	"fmt"

	"classroom-quiz-service/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

const (
	memberMentor  = "mentor"
	memberStudent = "student"
)

// ClassStore keeps classes in Postgres with membership in class_members.
type ClassStore struct {
	pool *pgxpool.Pool
}

func NewClassStore(pool *pgxpool.Pool) *ClassStore {
	return &ClassStore{pool: pool}
}

func (s *ClassStore) FindClass(ctx context.Context, classID string) (domain.Class, error) {
	var class domain.Class
	err := s.pool.QueryRow(ctx,
		`SELECT id, topic, name, description, join_code, created_by, created_at FROM classes WHERE id=$1`,
		classID,
	).Scan(&class.ID, &class.Topic, &class.Name, &class.Description, &class.JoinCode, &class.CreatedBy, &class.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Class{}, domain.ErrClassNotFound
	}
	if err != nil {
		return domain.Class{}, fmt.Errorf("find class: %w", err)
	}
	if err := s.loadMembers(ctx, &class); err != nil {
		return domain.Class{}, err
	}
	return class, nil
}

func (s *ClassStore) FindClassByJoinCode(ctx context.Context, code string) (domain.Class, error) {
	var id string
	err := s.pool.QueryRow(ctx, `SELECT id FROM classes WHERE join_code=$1`, code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Class{}, domain.ErrClassNotFound
	}
	if err != nil {
		return domain.Class{}, fmt.Errorf("find class by join code: %w", err)
	}
	return s.FindClass(ctx, id)
}

func (s *ClassStore) ListClassesForUser(ctx context.Context, userID string) ([]domain.Class, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id FROM classes c
		JOIN class_members m ON m.class_id = c.id
		WHERE m.user_id=$1
		ORDER BY c.created_at, c.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan class id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	out := make([]domain.Class, 0, len(ids))
	for _, id := range ids {
		class, err := s.FindClass(ctx, id)
		if errors.Is(err, domain.ErrClassNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, class)
	}
	return out, nil
}

func (s *ClassStore) CreateClass(ctx context.Context, class domain.Class) (domain.Class, error) {
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO classes (id, topic, name, description, join_code, created_by, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			class.ID, class.Topic, class.Name, class.Description, class.JoinCode, class.CreatedBy, class.CreatedAt,
		); err != nil {
			return err
		}
		for _, id := range class.Mentors {
			if err := insertMember(ctx, tx, class.ID, id, memberMentor); err != nil {
				return err
			}
		}
		for _, id := range class.Students {
			if err := insertMember(ctx, tx, class.ID, id, memberStudent); err != nil {
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err, "classes_join_code_key") {
		return domain.Class{}, domain.ErrJoinCodeTaken
	}
	if err != nil {
		return domain.Class{}, fmt.Errorf("create class: %w", err)
	}
	return s.FindClass(ctx, class.ID)
}

func (s *ClassStore) AddStudent(ctx context.Context, classID, userID string) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM classes WHERE id=$1)`, classID).Scan(&exists); err != nil {
		return fmt.Errorf("check class: %w", err)
	}
	if !exists {
		return domain.ErrClassNotFound
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO class_members (class_id, user_id, role) VALUES ($1, $2, $3)
		 ON CONFLICT (class_id, user_id) DO NOTHING`,
		classID, userID, memberStudent,
	)
	if err != nil {
		return fmt.Errorf("add student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyMember
	}
	return nil
}

func (s *ClassStore) loadMembers(ctx context.Context, class *domain.Class) error {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, role FROM class_members WHERE class_id=$1 ORDER BY joined_at, user_id`,
		class.ID,
	)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	class.Mentors = []string{}
	class.Students = []string{}
	for rows.Next() {
		var userID, role string
		if err := rows.Scan(&userID, &role); err != nil {
			return fmt.Errorf("scan member: %w", err)
		}
		if role == memberMentor {
			class.Mentors = append(class.Mentors, userID)
		} else {
			class.Students = append(class.Students, userID)
		}
	}
	return rows.Err()
}

func insertMember(ctx context.Context, tx pgx.Tx, classID, userID, role string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO class_members (class_id, user_id, role) VALUES ($1, $2, $3)
		 ON CONFLICT (class_id, user_id) DO NOTHING`,
		classID, userID, role,
	)
	return err
}

// isUniqueViolation reports a 23505 error, optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
