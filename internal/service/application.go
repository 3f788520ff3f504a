package service

import (
	"context"
	"errors"
	"time"

	"github.com/jobtrack/jobtrack-go/internal/model"
	"github.com/jobtrack/jobtrack-go/internal/repository"
)

var (
	ErrCompanyRequired     = errors.New("company is required")
	ErrPositionRequired    = errors.New("position is required")
	ErrInvalidDate         = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidStatus       = errors.New("unknown application status")
	ErrApplicationNotFound = errors.New("application not found")
)

// ApplicationService handles job-application business logic.
type ApplicationService struct {
	repo *repository.ApplicationRepository
}

// NewApplicationService creates a new ApplicationService.
func NewApplicationService(repo *repository.ApplicationRepository) *ApplicationService {
	return &ApplicationService{repo: repo}
}

// validateRequest checks all four fields of a create/update request. There
// are no partial updates, so every field is required every time.
func validateRequest(req model.ApplicationRequest) (time.Time, model.Status, error) {
	if req.Company == "" {
		return time.Time{}, "", ErrCompanyRequired
	}
	if req.Position == "" {
		return time.Time{}, "", ErrPositionRequired
	}

	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return time.Time{}, "", ErrInvalidDate
	}

	status, err := model.ParseStatus(req.Status)
	if err != nil {
		return time.Time{}, "", ErrInvalidStatus
	}

	return date, status, nil
}

// Create records a new application. The owner is always the authenticated
// user; nothing in the request body can redirect ownership.
func (s *ApplicationService) Create(ctx context.Context, userID int64, req model.ApplicationRequest) (model.ApplicationResponse, error) {
	date, status, err := validateRequest(req)
	if err != nil {
		return model.ApplicationResponse{}, err
	}

	app := model.Application{
		UserID:   userID,
		Company:  req.Company,
		Position: req.Position,
		Date:     date,
		Status:   status,
	}

	if err := s.repo.Create(ctx, &app); err != nil {
		return model.ApplicationResponse{}, err
	}

	return toResponse(app), nil
}

// List returns the user's applications, newest application date first.
func (s *ApplicationService) List(ctx context.Context, userID int64) ([]model.ApplicationResponse, error) {
	apps, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return appsToResponse(apps), nil
}

// Update replaces all fields of an application the user owns.
func (s *ApplicationService) Update(ctx context.Context, userID, id int64, req model.ApplicationRequest) (model.ApplicationResponse, error) {
	date, status, err := validateRequest(req)
	if err != nil {
		return model.ApplicationResponse{}, err
	}

	app := model.Application{
		ID:       id,
		UserID:   userID,
		Company:  req.Company,
		Position: req.Position,
		Date:     date,
		Status:   status,
	}

	if err := s.repo.Update(ctx, &app); err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return model.ApplicationResponse{}, ErrApplicationNotFound
		}
		return model.ApplicationResponse{}, err
	}

	return toResponse(app), nil
}

// Delete removes an application the user owns.
func (s *ApplicationService) Delete(ctx context.Context, userID, id int64) error {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrApplicationNotFound) {
		return ErrApplicationNotFound
	}
	return err
}

func toResponse(app model.Application) model.ApplicationResponse {
	return model.ApplicationResponse{
		ID:       app.ID,
		UserID:   app.UserID,
		Company:  app.Company,
		Position: app.Position,
		Date:     app.Date.Format(time.DateOnly),
		Status:   app.Status,
	}
}

// appsToResponse converts a slice of Application to a slice of
// ApplicationResponse. A user with no applications gets an empty array,
// not null.
func appsToResponse(apps []model.Application) []model.ApplicationResponse {
	result := make([]model.ApplicationResponse, len(apps))
	for i, a := range apps {
		result[i] = toResponse(a)
	}
	return result
}
