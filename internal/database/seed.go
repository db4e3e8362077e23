package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mateuscastro5/gym-api/internal/config"
	"github.com/mateuscastro5/gym-api/internal/models"
	"github.com/mateuscastro5/gym-api/internal/util"

	"gorm.io/gorm"
)

// SeedAdmin creates an active administrator when cfg names one and no live
// account owns that email yet. It reports whether a row was created.
func SeedAdmin(db *gorm.DB, cfg config.AdminConfig, bcryptCost int) (bool, error) {
	email := strings.TrimSpace(cfg.Email)
	if email == "" || cfg.Password == "" {
		return false, nil
	}

	var existing models.Account
	err := db.Where("email = ? AND deleted = ?", email, false).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	if res := util.ValidatePassword(cfg.Password); !res.Valid {
		return false, fmt.Errorf("admin password rejected: %s", strings.Join(res.Errors, "; "))
	}

	hash, err := util.HashPasswordCost(cfg.Password, bcryptCost)
	if err != nil {
		return false, err
	}

	name := cfg.Name
	if name == "" {
		name = "Administrator"
	}
	admin := models.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		AccessLevel:  models.LevelAdmin,
		Status:       models.StatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
