package database

import (
	"license-api/internal/models"

	"gorm.io/gorm"
)

// GetActivePlanByDays returns the active catalog entry for a day count
func GetActivePlanByDays(db *gorm.DB, days int) (*models.PlanSetting, error) {
	var plan models.PlanSetting
	err := db.Where("days = ? AND is_active = ?", days, true).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListPlans returns all catalog entries
func ListPlans(db *gorm.DB, activeOnly bool) ([]models.PlanSetting, error) {
	var plans []models.PlanSetting
	q := db.Order("days ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&plans).Error
	return plans, err
}

// CreatePlan inserts a catalog entry
func CreatePlan(db *gorm.DB, plan *models.PlanSetting) error {
	return db.Create(plan).Error
}

// UpdatePlan updates selected columns of a catalog entry
func UpdatePlan(db *gorm.DB, id uint, fields map[string]interface{}) error {
	result := db.Model(&models.PlanSetting{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
