package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"chatlist/internal/models"
)

type ResultRepository interface {
	Create(ctx context.Context, result *models.Result) error
	GetByID(ctx context.Context, id uint) (*models.Result, error)
	ListByPrompt(ctx context.Context, promptID uint) ([]models.Result, error)
	ListSelected(ctx context.Context) ([]models.Result, error)
	SetSelected(ctx context.Context, id uint, selected bool) error
	Search(ctx context.Context, query string) ([]models.Result, error)
	Delete(ctx context.Context, id uint) error
}

type resultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

// Create inserts one result row. A foreign-key violation is translated to
// the missing parent: a dispatch racing a prompt delete gets
// ErrPromptNotFound here instead of a raw constraint error.
func (r *resultRepository) Create(ctx context.Context, result *models.Result) error {
	if result == nil {
		return fmt.Errorf("result is required")
	}
	err := r.db.WithContext(ctx).Create(result).Error
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		var prompts int64
		if countErr := r.db.WithContext(ctx).Model(&models.Prompt{}).
			Where("id = ?", result.PromptID).Count(&prompts).Error; countErr == nil && prompts == 0 {
			return models.ErrPromptNotFound
		}
		return models.ErrProviderNotFound
	}
	return err
}

func (r *resultRepository) GetByID(ctx context.Context, id uint) (*models.Result, error) {
	var result models.Result
	if err := r.db.WithContext(ctx).First(&result, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrResultNotFound
		}
		return nil, err
	}
	return &result, nil
}

// ListByPrompt returns every result for the prompt in creation order.
func (r *resultRepository) ListByPrompt(ctx context.Context, promptID uint) ([]models.Result, error) {
	var results []models.Result
	err := r.db.WithContext(ctx).
		Preload("Provider").
		Where("prompt_id = ?", promptID).
		Order("date, id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListSelected returns all flagged results across all prompts, newest first,
// with prompt and provider loaded for display and export.
func (r *resultRepository) ListSelected(ctx context.Context) ([]models.Result, error) {
	var results []models.Result
	err := r.db.WithContext(ctx).
		Preload("Prompt").
		Preload("Provider").
		Where("selected = ?", true).
		Order("date DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resultRepository) SetSelected(ctx context.Context, id uint, selected bool) error {
	res := r.db.WithContext(ctx).Model(&models.Result{}).
		Where("id = ?", id).
		Update("selected", selected)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrResultNotFound
	}
	return nil
}

func (r *resultRepository) Search(ctx context.Context, query string) ([]models.Result, error) {
	var results []models.Result
	err := r.db.WithContext(ctx).
		Preload("Prompt").
		Preload("Provider").
		Where("response LIKE ?", "%"+query+"%").
		Order("date DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resultRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Result{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrResultNotFound
	}
	return nil
}
