// Package job 管理职位的发布、检索、更新与删除。
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"jobverse/internal/database"
	"jobverse/internal/errcode"
)

var (
	ErrNotFound        = errcode.NotFound("Job not found.")
	ErrNotCreator      = errcode.Forbidden("You are not authorized to modify this job.")
	ErrCompanyNotFound = errcode.NotFound("Company not found.")
	ErrCompanyNotOwned = errcode.Forbidden("You can only post jobs for your own company.")
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

// Post 发布职位，所有字段必填，公司必须存在且属于调用者。
func (s *Service) Post(ctx context.Context, callerID uint, draft Draft) (*database.Job, error) {
	f, err := draft.normalize(true)
	if err != nil {
		return nil, err
	}

	job := database.Job{
		Title:           *f.title,
		Description:     *f.description,
		Requirements:    f.requirements,
		Salary:          *f.salary,
		Location:        *f.location,
		JobType:         *f.jobType,
		ExperienceLevel: *f.experience,
		Position:        *f.position,
		CompanyID:       *f.companyID,
		CreatedBy:       callerID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company, err := ownedCompany(tx, callerID, job.CompanyID)
		if err != nil {
			return err
		}
		if err := tx.Create(&job).Error; err != nil {
			return fmt.Errorf("create job: %w", err)
		}
		job.Company = *company
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("job posted",
		slog.Uint64("job_id", uint64(job.ID)),
		slog.Uint64("company_id", uint64(job.CompanyID)),
		slog.Uint64("user_id", uint64(callerID)),
	)
	return &job, nil
}

// List 按 Query 返回职位，最新的在前，并附带公司信息。nil 表示全部。
func (s *Service) List(ctx context.Context, q Query) ([]database.Job, error) {
	db := s.db.WithContext(ctx).Preload("Company")
	if q != nil {
		db = q.apply(db)
	}

	jobs := make([]database.Job, 0)
	if err := db.Order("created_at DESC, id DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// Get 返回职位及其公司与投递记录。
func (s *Service) Get(ctx context.Context, id uint) (*database.Job, error) {
	var job database.Job
	err := s.db.WithContext(ctx).
		Preload("Company").
		Preload("Applications", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		First(&job, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query job: %w", err)
	}
	return &job, nil
}

// ListByCreator 返回调用者发布的职位，最新的在前。
func (s *Service) ListByCreator(ctx context.Context, creatorID uint) ([]database.Job, error) {
	jobs := make([]database.Job, 0)
	if err := s.db.WithContext(ctx).
		Preload("Company").
		Where("created_by = ?", creatorID).
		Order("created_at DESC, id DESC").
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs by creator: %w", err)
	}
	return jobs, nil
}

// Update 仅发布者可修改，未提供的字段保持原值。
func (s *Service) Update(ctx context.Context, callerID, id uint, draft Draft) (*database.Job, error) {
	f, err := draft.normalize(false)
	if err != nil {
		return nil, err
	}

	var job database.Job
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadCreated(tx, &job, callerID, id); err != nil {
			return err
		}

		if f.title != nil {
			job.Title = *f.title
		}
		if f.description != nil {
			job.Description = *f.description
		}
		if f.requirements != nil {
			job.Requirements = f.requirements
		}
		if f.salary != nil {
			job.Salary = *f.salary
		}
		if f.location != nil {
			job.Location = *f.location
		}
		if f.jobType != nil {
			job.JobType = *f.jobType
		}
		if f.experience != nil {
			job.ExperienceLevel = *f.experience
		}
		if f.position != nil {
			job.Position = *f.position
		}
		if f.companyID != nil && *f.companyID != job.CompanyID {
			if _, err := ownedCompany(tx, callerID, *f.companyID); err != nil {
				return err
			}
			job.CompanyID = *f.companyID
		}

		if err := tx.Omit("Company", "Applications").Save(&job).Error; err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		return tx.First(&job.Company, job.CompanyID).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("job updated", slog.Uint64("job_id", uint64(job.ID)))
	return &job, nil
}

// Delete 仅发布者可删除，同一事务内删除该职位的投递记录。
func (s *Service) Delete(ctx context.Context, callerID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job database.Job
		if err := loadCreated(tx, &job, callerID, id); err != nil {
			return err
		}
		if err := tx.Unscoped().Where("job_id = ?", job.ID).Delete(&database.Application{}).Error; err != nil {
			return fmt.Errorf("delete applications: %w", err)
		}
		if err := tx.Unscoped().Delete(&job).Error; err != nil {
			return fmt.Errorf("delete job: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("job deleted", slog.Uint64("job_id", uint64(id)))
	return nil
}

func loadCreated(tx *gorm.DB, job *database.Job, callerID, id uint) error {
	if err := tx.First(job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("query job: %w", err)
	}
	if job.CreatedBy != callerID {
		return ErrNotCreator
	}
	return nil
}

func ownedCompany(tx *gorm.DB, callerID, companyID uint) (*database.Company, error) {
	var company database.Company
	if err := tx.First(&company, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("query company: %w", err)
	}
	if company.UserID != callerID {
		return nil, ErrCompanyNotOwned
	}
	return &company, nil
}
