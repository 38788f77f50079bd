package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 账号角色。
const (
	RoleCandidate = "candidate"
	RoleRecruiter = "recruiter"
)

// 投递状态。
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// User 表示平台账号（求职者或招聘方）。
// Role 注册后不可修改；文件类字段只保存对象存储中的 key。
type User struct {
	gorm.Model
	FullName           string                      `gorm:"size:255;not null"`
	Email              string                      `gorm:"uniqueIndex;size:255;not null"`
	PhoneNumber        string                      `gorm:"size:32"`
	PasswordHash       string                      `gorm:"size:255;not null"`
	Role               string                      `gorm:"size:16;not null;index"`
	Bio                string                      `gorm:"type:text"`
	Skills             datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	ResumeKey          string                      `gorm:"size:512"`
	ResumeOriginalName string                      `gorm:"size:255"`
	AvatarKey          string                      `gorm:"size:512"`
}

// Company 表示招聘方注册的公司，名称全局唯一。
type Company struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;size:255;not null"`
	Description string `gorm:"type:text"`
	Website     string `gorm:"size:512"`
	Location    string `gorm:"size:255"`
	LogoKey     string `gorm:"size:512"`
	UserID      uint   `gorm:"index;not null"`
}

// Job 表示公司下发布的职位。
// Applications 仅用于按 job_id 预加载，不在本表冗余存储。
type Job struct {
	gorm.Model
	Title           string                      `gorm:"size:255;not null"`
	Description     string                      `gorm:"type:text;not null"`
	Requirements    datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Salary          float64                     `gorm:"not null"`
	Location        string                      `gorm:"size:255;not null"`
	JobType         string                      `gorm:"size:64;not null"`
	ExperienceLevel string                      `gorm:"size:64;not null"`
	Position        int                         `gorm:"not null"`
	CompanyID       uint                        `gorm:"index;not null"`
	Company         Company
	CreatedBy       uint          `gorm:"index;not null"`
	Applications    []Application `gorm:"foreignKey:JobID"`
}

// Application 表示一次投递，(job_id, applicant_id) 唯一。
type Application struct {
	gorm.Model
	JobID       uint   `gorm:"uniqueIndex:idx_application_job_applicant;not null"`
	ApplicantID uint   `gorm:"uniqueIndex:idx_application_job_applicant;not null;index"`
	Status      string `gorm:"size:16;not null;default:pending"`
	Job         Job
	Applicant   User `gorm:"foreignKey:ApplicantID"`
}
