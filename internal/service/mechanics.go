package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/notify"
)

// MechanicService manages service listings published by mechanics.
type MechanicService struct {
	store  MechanicStore
	users  UserStore
	mailer notify.Mailer
}

// NewMechanicService constructs a MechanicService.
func NewMechanicService(store MechanicStore, users UserStore, mailer notify.Mailer) *MechanicService {
	return &MechanicService{store: store, users: users, mailer: mailer}
}

// Create publishes a listing for the caller. Mechanics only.
func (s *MechanicService) Create(ctx context.Context, caller model.Identity, req model.MechanicServiceRequest) (*model.MechanicService, error) {
	if caller.Role != model.RoleMechanic {
		return nil, forbidden("only mechanics can publish services")
	}
	if err := validateListing(&req); err != nil {
		return nil, err
	}
	m := &model.MechanicService{
		UserID:          caller.UserID,
		Title:           req.Title,
		Description:     req.Description,
		ServicesOffered: req.ServicesOffered,
		Price:           req.Price,
		Availability:    req.Availability,
	}
	if err := s.store.CreateMechanicService(ctx, m); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	return m, nil
}

// List returns every listing with its mechanic resolved.
func (s *MechanicService) List(ctx context.Context) ([]model.MechanicServiceDetail, error) {
	listings, err := s.store.ListMechanicServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	ids := make([]string, 0, len(listings))
	for _, m := range listings {
		ids = append(ids, m.UserID)
	}
	users, err := loadUsers(ctx, s.users, distinct(ids))
	if err != nil {
		return nil, err
	}
	out := make([]model.MechanicServiceDetail, 0, len(listings))
	for _, m := range listings {
		out = append(out, model.MechanicServiceDetail{MechanicService: m, Mechanic: users.find(m.UserID)})
	}
	return out, nil
}

// Get returns one listing with its mechanic resolved.
func (s *MechanicService) Get(ctx context.Context, id string) (*model.MechanicServiceDetail, error) {
	m, err := s.store.GetMechanicService(ctx, id)
	if err != nil {
		return nil, lookupErr("service", err)
	}
	users, err := loadUsers(ctx, s.users, []string{m.UserID})
	if err != nil {
		return nil, err
	}
	return &model.MechanicServiceDetail{MechanicService: *m, Mechanic: users.find(m.UserID)}, nil
}

// Update replaces a listing's fields. Creator or admin.
func (s *MechanicService) Update(ctx context.Context, id string, caller model.Identity, req model.MechanicServiceRequest) (*model.MechanicService, error) {
	m, err := s.store.GetMechanicService(ctx, id)
	if err != nil {
		return nil, lookupErr("service", err)
	}
	if m.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, forbidden("only the publishing mechanic or an admin can edit a service")
	}
	if err := validateListing(&req); err != nil {
		return nil, err
	}
	m.Title, m.Description, m.ServicesOffered = req.Title, req.Description, req.ServicesOffered
	m.Price, m.Availability = req.Price, req.Availability
	if err := s.store.UpdateMechanicService(ctx, m); err != nil {
		return nil, lookupErr("service", err)
	}
	return m, nil
}

// Delete removes a listing. Creator or admin.
func (s *MechanicService) Delete(ctx context.Context, id string, caller model.Identity) error {
	m, err := s.store.GetMechanicService(ctx, id)
	if err != nil {
		return lookupErr("service", err)
	}
	if m.UserID != caller.UserID && !caller.IsAdmin() {
		return forbidden("only the publishing mechanic or an admin can delete a service")
	}
	if err := s.store.DeleteMechanicService(ctx, id); err != nil {
		return lookupErr("service", err)
	}
	return nil
}

// Contact emails the mechanic behind a listing on behalf of the caller and
// returns the address it was sent to. Car owners and spectators only.
func (s *MechanicService) Contact(ctx context.Context, id string, caller model.Identity, message string) (string, error) {
	if caller.Role != model.RoleCarOwner && caller.Role != model.RoleSpectator {
		return "", forbidden("only car owners and spectators can contact mechanics")
	}
	m, err := s.store.GetMechanicService(ctx, id)
	if err != nil {
		return "", lookupErr("service", err)
	}
	mechanic, err := s.users.GetUser(ctx, m.UserID)
	if err != nil {
		return "", lookupErr("mechanic", err)
	}
	sender, err := s.users.GetUser(ctx, caller.UserID)
	if err != nil {
		return "", lookupErr("user", err)
	}

	message = strings.TrimSpace(message)
	if message == "" {
		message = fmt.Sprintf("%s %s would like to hear more about your service.", sender.FirstName, sender.LastName)
	}
	msg := notify.Message{
		ToName:  mechanic.FirstName + " " + mechanic.LastName,
		ToEmail: mechanic.Email,
		ReplyTo: sender.Email,
		Subject: "New enquiry about " + m.Title,
		Text:    fmt.Sprintf("%s\n\nFrom: %s %s <%s>", message, sender.FirstName, sender.LastName, sender.Email),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return "", fmt.Errorf("contact mechanic: %w", err)
	}
	log.Info(log.CatMail, "mechanic contacted", "service_id", id, "from", caller.UserID)
	return mechanic.Email, nil
}

func validateListing(req *model.MechanicServiceRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Availability = strings.TrimSpace(req.Availability)
	if req.Title == "" {
		return invalid("title", "is required")
	}
	offered := make([]string, 0, len(req.ServicesOffered))
	for _, o := range req.ServicesOffered {
		if o = strings.TrimSpace(o); o != "" {
			offered = append(offered, o)
		}
	}
	if len(offered) == 0 {
		return invalid("servicesOffered", "must list at least one service")
	}
	req.ServicesOffered = offered
	if req.Price < 0 {
		return invalid("price", "cannot be negative")
	}
	return nil
}
