package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

const lessonColumns = `id, owner_id, title, description, video_url, price, applicants, created_at, updated_at`

// LessonRepository handles persistence for academy lessons.
type LessonRepository struct {
	db *pgxpool.Pool
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{db: db}
}

func scanLesson(row pgx.Row) (*model.AcademyLesson, error) {
	var (
		l          model.AcademyLesson
		applicants []string
	)
	if err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.VideoURL, &l.Price, &applicants, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.Applicants = model.NewIDSet(applicants...)
	return &l, nil
}

// CreateLesson inserts l, assigning its id and timestamps.
func (r *LessonRepository) CreateLesson(ctx context.Context, l *model.AcademyLesson) error {
	l.ID = newID()
	l.CreatedAt = now()
	l.UpdatedAt = l.CreatedAt

	_, err := r.db.Exec(ctx,
		`INSERT INTO academy_lessons (`+lessonColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.OwnerID, l.Title, l.Description, l.VideoURL, l.Price, l.Applicants.Slice(), l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}
	return nil
}

// GetLesson returns a lesson or ErrNotFound.
func (r *LessonRepository) GetLesson(ctx context.Context, id string) (*model.AcademyLesson, error) {
	l, err := scanLesson(r.db.QueryRow(ctx, `SELECT `+lessonColumns+` FROM academy_lessons WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return l, nil
}

// ListLessons returns every lesson, newest first.
func (r *LessonRepository) ListLessons(ctx context.Context) ([]model.AcademyLesson, error) {
	rows, err := r.db.Query(ctx, `SELECT `+lessonColumns+` FROM academy_lessons ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []model.AcademyLesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

// AddApplicant adds userID to the lesson's applicants unless already present.
func (r *LessonRepository) AddApplicant(ctx context.Context, lessonID, userID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE academy_lessons
		 SET applicants = array_append(applicants, $2::text), updated_at = now()
		 WHERE id = $1 AND NOT ($2::text = ANY(applicants))`,
		lessonID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("add applicant: %w", err)
	}
	return membershipResult(ctx, r.db, "academy_lessons", lessonID, tag)
}
