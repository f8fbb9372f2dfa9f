package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"chatlist/internal/models"
)

type ProviderRepository interface {
	Create(ctx context.Context, provider *models.Provider) error
	Update(ctx context.Context, provider *models.Provider) error
	GetByID(ctx context.Context, id uint) (*models.Provider, error)
	List(ctx context.Context) ([]models.Provider, error)
	ListActive(ctx context.Context) ([]models.Provider, error)
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
}

type providerRepository struct {
	db *gorm.DB
}

func NewProviderRepository(db *gorm.DB) ProviderRepository {
	return &providerRepository{db: db}
}

func (r *providerRepository) Create(ctx context.Context, provider *models.Provider) error {
	if provider == nil {
		return fmt.Errorf("provider is required")
	}
	return r.db.WithContext(ctx).Create(provider).Error
}

func (r *providerRepository) Update(ctx context.Context, provider *models.Provider) error {
	if provider == nil || provider.ID == 0 {
		return fmt.Errorf("provider ID is required")
	}
	res := r.db.WithContext(ctx).Model(&models.Provider{}).
		Where("id = ?", provider.ID).
		Updates(map[string]interface{}{
			"name":       provider.Name,
			"api_url":    provider.APIURL,
			"api_id":     provider.CredentialKey,
			"model_name": provider.ModelName,
			"is_active":  provider.IsActive,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrProviderNotFound
	}
	return nil
}

func (r *providerRepository) GetByID(ctx context.Context, id uint) (*models.Provider, error) {
	var provider models.Provider
	if err := r.db.WithContext(ctx).First(&provider, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrProviderNotFound
		}
		return nil, err
	}
	return &provider, nil
}

func (r *providerRepository) List(ctx context.Context) ([]models.Provider, error) {
	var providers []models.Provider
	if err := r.db.WithContext(ctx).Order("name").Find(&providers).Error; err != nil {
		return nil, err
	}
	return providers, nil
}

// ListActive returns dispatch-eligible providers in insertion (id) order.
func (r *providerRepository) ListActive(ctx context.Context) ([]models.Provider, error) {
	var providers []models.Provider
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&providers).Error
	if err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *providerRepository) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.Provider{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrProviderNotFound
	}
	return nil
}

// Delete refuses to remove a provider that still has results referencing it.
// The check and the delete run in one transaction so a result written in
// between cannot slip past the restrict rule.
func (r *providerRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&models.Result{}).Where("model_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return models.ErrProviderInUse
		}
		res := tx.Delete(&models.Provider{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrProviderNotFound
		}
		return nil
	})
}
