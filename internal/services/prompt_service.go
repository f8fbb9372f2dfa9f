package services

import (
	"context"
	"fmt"
	"strings"

	"chatlist/internal/models"
	"chatlist/internal/repositories"
)

type PromptService interface {
	Create(ctx context.Context, text string, tags []string) (*models.Prompt, error)
	Get(ctx context.Context, id uint) (*models.Prompt, error)
	List(ctx context.Context) ([]models.Prompt, error)
	ListOrdered(ctx context.Context, orderBy string, descending bool) ([]models.Prompt, error)
	Search(ctx context.Context, query string) ([]models.Prompt, error)
	Delete(ctx context.Context, id uint) error
}

type promptService struct {
	repo repositories.PromptRepository
}

func NewPromptService(repo repositories.PromptRepository) PromptService {
	return &promptService{repo: repo}
}

// Create stores a new prompt. Prompt text is immutable afterwards; there is
// deliberately no update path.
func (s *promptService) Create(ctx context.Context, text string, tags []string) (*models.Prompt, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("prompt text is required")
	}
	prompt := &models.Prompt{
		Text: text,
		Tags: models.JoinTags(tags),
	}
	if err := s.repo.Create(ctx, prompt); err != nil {
		return nil, err
	}
	return prompt, nil
}

func (s *promptService) Get(ctx context.Context, id uint) (*models.Prompt, error) {
	if id == 0 {
		return nil, fmt.Errorf("prompt ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *promptService) List(ctx context.Context) ([]models.Prompt, error) {
	return s.repo.List(ctx, "date", true)
}

func (s *promptService) ListOrdered(ctx context.Context, orderBy string, descending bool) ([]models.Prompt, error) {
	return s.repo.List(ctx, orderBy, descending)
}

func (s *promptService) Search(ctx context.Context, query string) ([]models.Prompt, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}
	return s.repo.Search(ctx, query)
}

func (s *promptService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("prompt ID is required")
	}
	return s.repo.Delete(ctx, id)
}
