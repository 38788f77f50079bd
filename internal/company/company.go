// Package company 管理招聘方名下的公司。
package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"jobverse/internal/database"
	"jobverse/internal/errcode"
)

var (
	ErrNameRequired = errcode.BadRequest("Company name is required.")
	ErrNotFound     = errcode.NotFound("Company not found.")
	ErrNotOwner     = errcode.Forbidden("Unauthorized action.")
)

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}
}

// Update 中为空的字段保持原值。
type Update struct {
	Name        string
	Description string
	Website     string
	Location    string
	LogoKey     string
}

// Register 以调用者为所有者创建公司，名称重复返回 ErrDuplicateCompany。
func (s *Service) Register(ctx context.Context, ownerID uint, name string) (*database.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	company := database.Company{Name: name, UserID: ownerID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := nameTaken(tx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return errcode.ErrDuplicateCompany
		}
		if err := tx.Create(&company).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errcode.ErrDuplicateCompany.Wrap(err)
			}
			return fmt.Errorf("create company: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("company registered",
		slog.Uint64("company_id", uint64(company.ID)),
		slog.Uint64("user_id", uint64(ownerID)),
	)
	return &company, nil
}

// ListByOwner 返回调用者名下的公司，最新的在前。
func (s *Service) ListByOwner(ctx context.Context, ownerID uint) ([]database.Company, error) {
	companies := make([]database.Company, 0)
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// Get 按 id 读取公司。
func (s *Service) Get(ctx context.Context, id uint) (*database.Company, error) {
	var company database.Company
	if err := s.db.WithContext(ctx).First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query company: %w", err)
	}
	return &company, nil
}

// Update 仅所有者可修改；改名撞上已有名称返回 ErrDuplicateCompany。
// 第二个返回值是被替换掉的旧 logo key。
func (s *Service) Update(ctx context.Context, callerID, id uint, upd Update) (*database.Company, string, error) {
	var (
		company  database.Company
		replaced string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadOwned(tx, &company, callerID, id); err != nil {
			return err
		}

		if name := strings.TrimSpace(upd.Name); name != "" && name != company.Name {
			taken, err := nameTaken(tx, name, company.ID)
			if err != nil {
				return err
			}
			if taken {
				return errcode.ErrDuplicateCompany
			}
			company.Name = name
		}
		if v := strings.TrimSpace(upd.Description); v != "" {
			company.Description = v
		}
		if v := strings.TrimSpace(upd.Website); v != "" {
			company.Website = v
		}
		if v := strings.TrimSpace(upd.Location); v != "" {
			company.Location = v
		}
		if upd.LogoKey != "" {
			if company.LogoKey != upd.LogoKey {
				replaced = company.LogoKey
			}
			company.LogoKey = upd.LogoKey
		}

		if err := tx.Save(&company).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errcode.ErrDuplicateCompany.Wrap(err)
			}
			return fmt.Errorf("update company: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("company updated", slog.Uint64("company_id", uint64(company.ID)))
	return &company, replaced, nil
}

// Delete 仅所有者可删除，同一事务内级联删除公司下的职位及其投递记录。
func (s *Service) Delete(ctx context.Context, callerID, id uint) error {
	var company database.Company
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadOwned(tx, &company, callerID, id); err != nil {
			return err
		}

		jobIDs := tx.Model(&database.Job{}).Select("id").Where("company_id = ?", company.ID)
		if err := tx.Unscoped().Where("job_id IN (?)", jobIDs).Delete(&database.Application{}).Error; err != nil {
			return fmt.Errorf("delete applications: %w", err)
		}
		if err := tx.Unscoped().Where("company_id = ?", company.ID).Delete(&database.Job{}).Error; err != nil {
			return fmt.Errorf("delete jobs: %w", err)
		}
		if err := tx.Unscoped().Delete(&company).Error; err != nil {
			return fmt.Errorf("delete company: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("company deleted", slog.Uint64("company_id", uint64(id)))
	return nil
}

func loadOwned(tx *gorm.DB, company *database.Company, callerID, id uint) error {
	if err := tx.First(company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("query company: %w", err)
	}
	if company.UserID != callerID {
		return ErrNotOwner
	}
	return nil
}

func nameTaken(tx *gorm.DB, name string, exceptID uint) (bool, error) {
	var count int64
	query := tx.Model(&database.Company{}).Where("name = ?", name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check company name: %w", err)
	}
	return count > 0, nil
}
