package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"jobverse/internal/database"
	"jobverse/internal/errcode"
	"jobverse/internal/tasks"
)

// Mailer 发送一封 HTML 邮件。
type Mailer interface {
	Send(to, subject, body string) error
}

// StatusChangedHandler 消费申请状态变更任务：推送站内消息，并在配置了 SMTP 时发邮件。
type StatusChangedHandler struct {
	db        *gorm.DB
	publisher Publisher
	mailer    Mailer
	logger    *slog.Logger
}

// NewStatusChangedHandler 创建任务处理器，mailer 可为 nil。
func NewStatusChangedHandler(db *gorm.DB, publisher Publisher, mailer Mailer, logger *slog.Logger) *StatusChangedHandler {
	return &StatusChangedHandler{
		db:        db,
		publisher: publisher,
		mailer:    mailer,
		logger:    logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *StatusChangedHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.ApplicationStatusChangedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("application_id", int(payload.ApplicationID)),
	)

	var app database.Application
	err := h.db.WithContext(ctx).
		Preload("Job.Company").
		Preload("Applicant").
		First(&app, payload.ApplicationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("application not found, skipping task")
			return nil
		}
		log.Error("query application failed", slog.Any("error", err))
		return err
	}

	// 状态在任务排队期间又被改过，交给后一个任务通知。
	if app.Status != payload.Status {
		log.Info("application status superseded, skipping task",
			slog.String("task_status", payload.Status),
			slog.String("current_status", app.Status),
		)
		return nil
	}

	msg := StatusNotifyMessage{
		Type:          statusNotifyType,
		ApplicationID: app.ID,
		JobID:         app.JobID,
		JobTitle:      app.Job.Title,
		Company:       app.Job.Company.Name,
		Status:        app.Status,
		CorrelationID: payload.CorrelationID,
		Code:          errcode.OK,
	}
	if app.Job.Company.ID == 0 {
		msg.Code = errcode.ResourceMissing
	}
	data, err := encodeNotify(msg)
	if err != nil {
		return err
	}
	if err := h.publisher.Publish(ctx, NotifyChannel(app.ApplicantID), data); err != nil {
		log.Error("publish status notification failed", slog.Any("error", err))
		return err
	}

	if h.mailer != nil && strings.TrimSpace(app.Applicant.Email) != "" {
		subject, body := statusEmail(app)
		if err := h.mailer.Send(app.Applicant.Email, subject, body); err != nil {
			// 站内消息已送达，邮件失败不再重试。
			log.Warn("send status email failed", slog.Any("error", err))
		}
	}

	log.Info("application status notification delivered", slog.String("status", app.Status))
	return nil
}

func statusEmail(app database.Application) (string, string) {
	subject := fmt.Sprintf("Your application for %s was %s", app.Job.Title, app.Status)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your application for <strong>%s</strong> at %s is now <strong>%s</strong>.</p>",
		html.EscapeString(app.Applicant.FullName),
		html.EscapeString(app.Job.Title),
		html.EscapeString(app.Job.Company.Name),
		html.EscapeString(app.Status),
	)
	return subject, body
}
