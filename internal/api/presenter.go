package api

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"jobverse/internal/database"
)

// URLSigner 为对象 key 生成限时访问链接。
type URLSigner interface {
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
}

const presignTTL = time.Hour

// presenter 把数据库模型转换为前端约定的 JSON 结构，文件 key 在此处换成预签名链接。
type presenter struct {
	signer URLSigner
	logger *slog.Logger
}

type userView struct {
	ID          uint        `json:"_id"`
	FullName    string      `json:"fullname"`
	Email       string      `json:"email"`
	PhoneNumber string      `json:"phoneNumber"`
	Role        string      `json:"role"`
	Profile     profileView `json:"profile"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type profileView struct {
	Bio                string   `json:"bio"`
	Skills             []string `json:"skills"`
	Resume             string   `json:"resume"`
	ResumeOriginalName string   `json:"resumeOriginalName"`
	ProfilePhoto       string   `json:"profilePhoto"`
}

type companyView struct {
	ID          uint      `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Website     string    `json:"website"`
	Location    string    `json:"location"`
	Logo        string    `json:"logo"`
	UserID      uint      `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// jobView 中 company 未预加载时输出 id，与 applications 的处理一致。
type jobView struct {
	ID              uint      `json:"_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Requirements    []string  `json:"requirements"`
	Salary          float64   `json:"salary"`
	Location        string    `json:"location"`
	JobType         string    `json:"jobType"`
	ExperienceLevel string    `json:"experienceLevel"`
	Position        int       `json:"position"`
	Company         any       `json:"company"`
	CreatedBy       uint      `json:"created_by"`
	Applications    []any     `json:"applications"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type applicationView struct {
	ID        uint      `json:"_id"`
	Job       any       `json:"job"`
	Applicant any       `json:"applicant"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p presenter) url(ctx context.Context, key string) string {
	if p.signer == nil || strings.TrimSpace(key) == "" {
		return ""
	}
	signed, err := p.signer.GeneratePresignedURL(ctx, key, presignTTL)
	if err != nil {
		p.logger.Warn("presign object failed", slog.String("object_key", key), slog.Any("error", err))
		return ""
	}
	return signed
}

func (p presenter) user(ctx context.Context, u *database.User) userView {
	skills := []string(u.Skills)
	if skills == nil {
		skills = []string{}
	}
	return userView{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		Profile: profileView{
			Bio:                u.Bio,
			Skills:             skills,
			Resume:             p.url(ctx, u.ResumeKey),
			ResumeOriginalName: u.ResumeOriginalName,
			ProfilePhoto:       p.url(ctx, u.AvatarKey),
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (p presenter) company(ctx context.Context, c *database.Company) companyView {
	return companyView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Website:     c.Website,
		Location:    c.Location,
		Logo:        p.url(ctx, c.LogoKey),
		UserID:      c.UserID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (p presenter) companies(ctx context.Context, list []database.Company) []companyView {
	out := make([]companyView, 0, len(list))
	for i := range list {
		out = append(out, p.company(ctx, &list[i]))
	}
	return out
}

func (p presenter) job(ctx context.Context, j *database.Job) jobView {
	requirements := []string(j.Requirements)
	if requirements == nil {
		requirements = []string{}
	}
	view := jobView{
		ID:              j.ID,
		Title:           j.Title,
		Description:     j.Description,
		Requirements:    requirements,
		Salary:          j.Salary,
		Location:        j.Location,
		JobType:         j.JobType,
		ExperienceLevel: j.ExperienceLevel,
		Position:        j.Position,
		Company:         j.CompanyID,
		CreatedBy:       j.CreatedBy,
		Applications:    make([]any, 0, len(j.Applications)),
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
	if j.Company.ID != 0 {
		view.Company = p.company(ctx, &j.Company)
	}
	for i := range j.Applications {
		view.Applications = append(view.Applications, p.application(ctx, &j.Applications[i]))
	}
	return view
}

func (p presenter) jobs(ctx context.Context, list []database.Job) []jobView {
	out := make([]jobView, 0, len(list))
	for i := range list {
		out = append(out, p.job(ctx, &list[i]))
	}
	return out
}

func (p presenter) application(ctx context.Context, a *database.Application) applicationView {
	view := applicationView{
		ID:        a.ID,
		Job:       a.JobID,
		Applicant: a.ApplicantID,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.Job.ID != 0 {
		view.Job = p.job(ctx, &a.Job)
	}
	if a.Applicant.ID != 0 {
		view.Applicant = p.user(ctx, &a.Applicant)
	}
	return view
}

func (p presenter) applications(ctx context.Context, list []database.Application) []applicationView {
	out := make([]applicationView, 0, len(list))
	for i := range list {
		out = append(out, p.application(ctx, &list[i]))
	}
	return out
}
