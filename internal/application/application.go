// Package application 记录求职者的投递及招聘方对投递状态的处理。
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"jobverse/internal/database"
	"jobverse/internal/errcode"
)

var (
	ErrJobIDRequired = errcode.BadRequest("Job ID is required.")
	ErrJobNotFound   = errcode.NotFound("Job not found.")
	ErrNotFound      = errcode.NotFound("Application not found.")
	ErrNotJobCreator = errcode.Forbidden("You are not authorized to manage applications for this job.")
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

// ParseStatus 去空白并转小写，只接受 pending/accepted/rejected。
func ParseStatus(raw string) (string, error) {
	switch status := strings.ToLower(strings.TrimSpace(raw)); status {
	case database.StatusPending, database.StatusAccepted, database.StatusRejected:
		return status, nil
	default:
		return "", errcode.ErrInvalidStatus
	}
}

// Apply 为调用者投递职位。前置检查依次为：职位 id 合法、未重复投递、职位存在。
func (s *Service) Apply(ctx context.Context, applicantID uint, rawJobID string) (*database.Application, error) {
	jobID, err := strconv.ParseUint(strings.TrimSpace(rawJobID), 10, 64)
	if err != nil || jobID == 0 {
		return nil, ErrJobIDRequired
	}

	app := database.Application{
		JobID:       uint(jobID),
		ApplicantID: applicantID,
		Status:      database.StatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&database.Application{}).
			Where("job_id = ? AND applicant_id = ?", app.JobID, applicantID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check application: %w", err)
		}
		if existing > 0 {
			return errcode.ErrAlreadyApplied
		}

		var job database.Job
		if err := tx.Select("id").First(&job, app.JobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return fmt.Errorf("query job: %w", err)
		}

		if err := tx.Create(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errcode.ErrAlreadyApplied.Wrap(err)
			}
			return fmt.Errorf("create application: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("application created",
		slog.Uint64("application_id", uint64(app.ID)),
		slog.Uint64("job_id", uint64(app.JobID)),
		slog.Uint64("user_id", uint64(applicantID)),
	)
	return &app, nil
}

// ListByApplicant 返回调用者的投递，附带职位与公司；职位已不存在的记录被过滤。
func (s *Service) ListByApplicant(ctx context.Context, applicantID uint) ([]database.Application, error) {
	apps := make([]database.Application, 0)
	if err := s.db.WithContext(ctx).
		Joins("JOIN jobs ON jobs.id = applications.job_id AND jobs.deleted_at IS NULL").
		Preload("Job.Company").
		Where("applications.applicant_id = ?", applicantID).
		Order("applications.created_at DESC, applications.id DESC").
		Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// ListForJob 返回职位的全部投递及投递人，仅职位发布者可查看。
func (s *Service) ListForJob(ctx context.Context, callerID, jobID uint) ([]database.Application, error) {
	apps := make([]database.Application, 0)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job database.Job
		if err := tx.First(&job, jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return fmt.Errorf("query job: %w", err)
		}
		if job.CreatedBy != callerID {
			return ErrNotJobCreator
		}

		if err := tx.Preload("Applicant").
			Where("job_id = ?", jobID).
			Order("created_at DESC, id DESC").
			Find(&apps).Error; err != nil {
			return fmt.Errorf("list applicants: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdateStatus 修改投递状态，只有该职位的发布者可以操作，任意状态之间均可切换。
// 返回的投递附带职位信息，便于调用方发送通知。
func (s *Service) UpdateStatus(ctx context.Context, callerID, applicationID uint, rawStatus string) (*database.Application, error) {
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	var app database.Application
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Job").First(&app, applicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("query application: %w", err)
		}
		if app.Job.ID == 0 {
			return ErrJobNotFound
		}
		if app.Job.CreatedBy != callerID {
			return ErrNotJobCreator
		}

		if err := tx.Model(&app).Update("status", status).Error; err != nil {
			return fmt.Errorf("update application status: %w", err)
		}
		app.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("application status updated",
		slog.Uint64("application_id", uint64(app.ID)),
		slog.String("status", status),
	)
	return &app, nil
}
