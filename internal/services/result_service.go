package services

import (
	"context"
	"fmt"
	"strings"

	"chatlist/internal/models"
	"chatlist/internal/repositories"
)

type ResultService interface {
	Get(ctx context.Context, id uint) (*models.Result, error)
	ListByPrompt(ctx context.Context, promptID uint) ([]models.Result, error)
	ListSelected(ctx context.Context) ([]models.Result, error)
	SetSelected(ctx context.Context, id uint, selected bool) error
	ToggleSelected(ctx context.Context, id uint) (bool, error)
	Search(ctx context.Context, query string) ([]models.Result, error)
	Delete(ctx context.Context, id uint) error
}

type resultService struct {
	repo repositories.ResultRepository
}

func NewResultService(repo repositories.ResultRepository) ResultService {
	return &resultService{repo: repo}
}

func (s *resultService) Get(ctx context.Context, id uint) (*models.Result, error) {
	if id == 0 {
		return nil, fmt.Errorf("result ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *resultService) ListByPrompt(ctx context.Context, promptID uint) ([]models.Result, error) {
	if promptID == 0 {
		return nil, fmt.Errorf("prompt ID is required")
	}
	return s.repo.ListByPrompt(ctx, promptID)
}

func (s *resultService) ListSelected(ctx context.Context) ([]models.Result, error) {
	return s.repo.ListSelected(ctx)
}

// SetSelected flags a result for export. Only callers flip this flag; the
// dispatch engine never does.
func (s *resultService) SetSelected(ctx context.Context, id uint, selected bool) error {
	if id == 0 {
		return fmt.Errorf("result ID is required")
	}
	return s.repo.SetSelected(ctx, id, selected)
}

// ToggleSelected flips the flag and returns the new value.
func (s *resultService) ToggleSelected(ctx context.Context, id uint) (bool, error) {
	result, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	next := !result.Selected
	if err := s.repo.SetSelected(ctx, id, next); err != nil {
		return false, err
	}
	return next, nil
}

func (s *resultService) Search(ctx context.Context, query string) ([]models.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	return s.repo.Search(ctx, query)
}

func (s *resultService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("result ID is required")
	}
	return s.repo.Delete(ctx, id)
}
