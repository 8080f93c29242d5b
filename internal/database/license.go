package database

import (
	"errors"

	"license-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// licenseTables is the dual-source lookup chain: user purchases first, then
// admin grants. Every resolve goes through this order; call sites never
// re-branch on the backing collection.
var licenseTables = []string{models.LicenseTableUser, models.LicenseTableAdmin}

// ResolveLicense finds a license by code across both collections and returns
// it together with the table it came from, so writes go back to the right
// place.
func ResolveLicense(db *gorm.DB, code string) (*models.License, string, error) {
	for _, table := range licenseTables {
		var license models.License
		err := db.Table(table).Where("code = ? AND deleted_at IS NULL", code).First(&license).Error
		if err == nil {
			return &license, table, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", err
		}
	}
	return nil, "", gorm.ErrRecordNotFound
}

// ResolveLicenseForUpdate resolves a license with a row lock, for use inside
// a transaction that will write it back. The sqlite dev fallback has no
// row-level locking and drops the clause.
func ResolveLicenseForUpdate(tx *gorm.DB, code string) (*models.License, string, error) {
	return ResolveLicense(tx.Clauses(clause.Locking{Strength: "UPDATE"}), code)
}

// CreateLicense inserts a license into the given collection
func CreateLicense(db *gorm.DB, table string, license *models.License) error {
	return db.Table(table).Create(license).Error
}

// UpdateLicenseFields updates selected columns of a license in its backing
// collection
func UpdateLicenseFields(db *gorm.DB, table, code string, fields map[string]interface{}) error {
	result := db.Table(table).Where("code = ? AND deleted_at IS NULL", code).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteLicense soft-deletes a license from its backing collection
func DeleteLicense(db *gorm.DB, table, code string) error {
	result := db.Table(table).Where("code = ? AND deleted_at IS NULL", code).
		UpdateColumn("deleted_at", gorm.Expr("CURRENT_TIMESTAMP"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListLicensesByUsername returns a user's licenses from both collections
func ListLicensesByUsername(db *gorm.DB, username string) ([]models.License, error) {
	var all []models.License
	for _, table := range licenseTables {
		var licenses []models.License
		err := db.Table(table).Where("username = ? AND deleted_at IS NULL", username).
			Order("created_at DESC").
			Find(&licenses).Error
		if err != nil {
			return nil, err
		}
		all = append(all, licenses...)
	}
	return all, nil
}
