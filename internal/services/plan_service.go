package services

import (
	"errors"
	"fmt"

	"license-api/internal/database"
	"license-api/internal/errs"
	"license-api/internal/models"

	"gorm.io/gorm"
)

// PlanService provides plan catalog operations
type PlanService struct {
	db *gorm.DB
}

// NewPlanService creates a new plan service
func NewPlanService() *PlanService {
	return &PlanService{db: database.GetDB()}
}

// ListPlans returns catalog entries
func (s *PlanService) ListPlans(activeOnly bool) ([]models.PlanSetting, error) {
	return database.ListPlans(s.db, activeOnly)
}

// CreatePlan adds a catalog entry
func (s *PlanService) CreatePlan(plan *models.PlanSetting) error {
	if plan.Days != models.LifetimeDays && plan.Days < 1 {
		return fmt.Errorf("%w: plan days must be positive or the lifetime sentinel", errs.ErrValidation)
	}
	if plan.Price < 0 || plan.Points < 0 {
		return fmt.Errorf("%w: price and points must be non-negative", errs.ErrValidation)
	}
	return database.CreatePlan(s.db, plan)
}

// UpdatePlan updates a catalog entry
func (s *PlanService) UpdatePlan(id uint, fields map[string]interface{}) error {
	err := database.UpdatePlan(s.db, id, fields)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: plan %d", errs.ErrNotFound, id)
	}
	return err
}
