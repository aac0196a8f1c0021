package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

// AcademyService manages academy lessons and applications.
type AcademyService struct {
	lessons LessonStore
	users   UserStore
}

// NewAcademyService constructs an AcademyService.
func NewAcademyService(lessons LessonStore, users UserStore) *AcademyService {
	return &AcademyService{lessons: lessons, users: users}
}

// Create publishes a lesson. Admin only.
func (s *AcademyService) Create(ctx context.Context, caller model.Identity, req model.LessonRequest) (*model.AcademyLesson, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("only admins can create lessons")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.VideoURL = strings.TrimSpace(req.VideoURL)
	if req.Title == "" {
		return nil, invalid("title", "is required")
	}
	if req.Price < 0 {
		return nil, invalid("price", "cannot be negative")
	}
	if req.VideoURL != "" {
		u, err := url.Parse(req.VideoURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, invalid("videoURL", "must be an http(s) URL")
		}
	}

	l := &model.AcademyLesson{
		OwnerID:     caller.UserID,
		Title:       req.Title,
		Description: req.Description,
		VideoURL:    req.VideoURL,
		Price:       req.Price,
	}
	if err := s.lessons.CreateLesson(ctx, l); err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}
	return l, nil
}

// List returns every lesson with its owner resolved.
func (s *AcademyService) List(ctx context.Context) ([]model.LessonDetail, error) {
	lessons, err := s.lessons.ListLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	ids := make([]string, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.OwnerID)
	}
	owners, err := loadUsers(ctx, s.users, distinct(ids))
	if err != nil {
		return nil, err
	}
	out := make([]model.LessonDetail, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, model.LessonDetail{AcademyLesson: l, Owner: owners.find(l.OwnerID)})
	}
	return out, nil
}

// Apply enrols the caller in a lesson. Applying twice is a no-op.
func (s *AcademyService) Apply(ctx context.Context, lessonID string, caller model.Identity) (*model.AcademyLesson, error) {
	added, err := s.lessons.AddApplicant(ctx, lessonID, caller.UserID)
	if err != nil {
		return nil, lookupErr("lesson", err)
	}
	if added {
		log.Info(log.CatRegistration, "lesson application", "lesson_id", lessonID, "user_id", caller.UserID)
	}
	l, err := s.lessons.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, lookupErr("lesson", err)
	}
	return l, nil
}

// Applicants returns every user who applied to at least one lesson, with
// the lessons they applied to. Admin only.
func (s *AcademyService) Applicants(ctx context.Context, caller model.Identity) ([]model.Applicant, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("admins only")
	}
	lessons, err := s.lessons.ListLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}

	var order []string
	byUser := make(map[string][]string)
	for _, l := range lessons {
		for _, userID := range l.Applicants.Slice() {
			if _, ok := byUser[userID]; !ok {
				order = append(order, userID)
			}
			byUser[userID] = append(byUser[userID], l.ID)
		}
	}
	if len(order) == 0 {
		return []model.Applicant{}, nil
	}

	users, err := s.users.GetUsers(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("load applicants: %w", err)
	}
	byID := make(map[string]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]model.Applicant, 0, len(order))
	for _, userID := range order {
		u, ok := byID[userID]
		if !ok {
			continue
		}
		out = append(out, model.Applicant{UserSummary: u.Summary(), Role: u.Role, LessonIDs: byUser[userID]})
	}
	return out, nil
}
