package database

import (
	"license-api/internal/models"

	"gorm.io/gorm"
)

// HasPendingExtensionRequest reports whether a pending extension request
// exists for the license
func HasPendingExtensionRequest(db *gorm.DB, licenseCode string) (bool, error) {
	var count int64
	err := db.Model(&models.ExtensionRequest{}).
		Where("license_code = ? AND status = ?", licenseCode, models.RequestStatusPending).
		Count(&count).Error
	return count > 0, err
}

// CreateExtensionRequest inserts an extension request
func CreateExtensionRequest(db *gorm.DB, req *models.ExtensionRequest) error {
	return db.Create(req).Error
}

// GetExtensionRequestByID gets an extension request
func GetExtensionRequestByID(db *gorm.DB, id uint) (*models.ExtensionRequest, error) {
	var req models.ExtensionRequest
	err := db.First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListExtensionRequests returns extension requests, optionally filtered by
// status
func ListExtensionRequests(db *gorm.DB, status string) ([]models.ExtensionRequest, error) {
	var reqs []models.ExtensionRequest
	q := db.Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&reqs).Error
	return reqs, err
}

// HasPendingTopUpRequest reports whether a pending top-up request exists for
// the account
func HasPendingTopUpRequest(db *gorm.DB, username string) (bool, error) {
	var count int64
	err := db.Model(&models.TopUpRequest{}).
		Where("username = ? AND status = ?", username, models.RequestStatusPending).
		Count(&count).Error
	return count > 0, err
}

// CreateTopUpRequest inserts a top-up request
func CreateTopUpRequest(db *gorm.DB, req *models.TopUpRequest) error {
	return db.Create(req).Error
}

// GetTopUpRequestByID gets a top-up request
func GetTopUpRequestByID(db *gorm.DB, id uint) (*models.TopUpRequest, error) {
	var req models.TopUpRequest
	err := db.First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListTopUpRequests returns top-up requests, optionally filtered by status
func ListTopUpRequests(db *gorm.DB, status string) ([]models.TopUpRequest, error) {
	var reqs []models.TopUpRequest
	q := db.Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&reqs).Error
	return reqs, err
}

// MarkRequestProcessedIfPending flips a request row from pending to the given
// terminal status in one conditional statement, so an already-processed
// request can never be processed twice. Returns whether the row changed.
func MarkRequestProcessedIfPending(db *gorm.DB, model interface{}, id uint, fields map[string]interface{}) (bool, error) {
	result := db.Model(model).
		Where("id = ? AND status = ?", id, models.RequestStatusPending).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
