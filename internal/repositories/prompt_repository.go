package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"chatlist/internal/models"
)

type PromptRepository interface {
	Create(ctx context.Context, prompt *models.Prompt) error
	GetByID(ctx context.Context, id uint) (*models.Prompt, error)
	List(ctx context.Context, orderBy string, descending bool) ([]models.Prompt, error)
	Search(ctx context.Context, query string) ([]models.Prompt, error)
	Delete(ctx context.Context, id uint) error
}

type promptRepository struct {
	db *gorm.DB
}

func NewPromptRepository(db *gorm.DB) PromptRepository {
	return &promptRepository{db: db}
}

func (r *promptRepository) Create(ctx context.Context, prompt *models.Prompt) error {
	if prompt == nil {
		return fmt.Errorf("prompt is required")
	}
	return r.db.WithContext(ctx).Create(prompt).Error
}

func (r *promptRepository) GetByID(ctx context.Context, id uint) (*models.Prompt, error) {
	var prompt models.Prompt
	if err := r.db.WithContext(ctx).First(&prompt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrPromptNotFound
		}
		return nil, err
	}
	return &prompt, nil
}

// List sorts by one of the whitelisted columns, defaulting to newest first.
func (r *promptRepository) List(ctx context.Context, orderBy string, descending bool) ([]models.Prompt, error) {
	switch orderBy {
	case "id", "date", "prompt":
	default:
		orderBy = "date"
		descending = true
	}
	order := orderBy
	if descending {
		order += " DESC"
	}

	var prompts []models.Prompt
	if err := r.db.WithContext(ctx).Order(order).Find(&prompts).Error; err != nil {
		return nil, err
	}
	return prompts, nil
}

func (r *promptRepository) Search(ctx context.Context, query string) ([]models.Prompt, error) {
	var prompts []models.Prompt
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("prompt LIKE ? OR tags LIKE ?", pattern, pattern).
		Order("date DESC").
		Find(&prompts).Error
	if err != nil {
		return nil, err
	}
	return prompts, nil
}

// Delete removes the prompt and all of its results in one transaction, so a
// crash mid-delete leaves either both applied or neither.
func (r *promptRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("prompt_id = ?", id).Delete(&models.Result{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Prompt{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrPromptNotFound
		}
		return nil
	})
}
