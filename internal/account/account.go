// Package account 管理平台账号：注册、登录校验与资料更新。
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"jobverse/internal/auth"
	"jobverse/internal/database"
	"jobverse/internal/errcode"
)

var (
	ErrMissingFields = errcode.BadRequest("All fields are required.")
	ErrInvalidRole   = errcode.BadRequest("Role must be candidate or recruiter.")
	ErrNotFound      = errcode.NotFound("User not found.")
)

// Service 是账号目录的领域服务。
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

// RegisterInput 描述注册所需字段，AvatarKey 为已上传头像的对象 key。
type RegisterInput struct {
	FullName    string
	Email       string
	PhoneNumber string
	Password    string
	Role        string
	AvatarKey   string
}

// ProfileUpdate 中为 nil 的字段保持原值。
type ProfileUpdate struct {
	FullName           *string
	Email              *string
	PhoneNumber        *string
	Bio                *string
	Skills             *string
	ResumeKey          *string
	ResumeOriginalName *string
	AvatarKey          *string
}

// ValidRole 判断角色是否为已知取值。
func ValidRole(role string) bool {
	return role == database.RoleCandidate || role == database.RoleRecruiter
}

// NormalizeEmail 去除首尾空白并转小写。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseSkills 解析逗号分隔的技能列表：去空白、去空项、按首次出现去重。
func ParseSkills(raw string) []string {
	skills := make([]string, 0)
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		skill := strings.TrimSpace(part)
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		skills = append(skills, skill)
	}
	return skills
}

// Register 创建账号，邮箱重复返回 ErrDuplicateEmail。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*database.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = NormalizeEmail(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Role = strings.TrimSpace(in.Role)
	if in.FullName == "" || in.Email == "" || in.PhoneNumber == "" || in.Password == "" || in.Role == "" {
		return nil, ErrMissingFields
	}
	if !ValidRole(in.Role) {
		return nil, ErrInvalidRole
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := database.User{
		FullName:     in.FullName,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hashed,
		Role:         in.Role,
		AvatarKey:    in.AvatarKey,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := emailTaken(tx, in.Email)
		if err != nil {
			return err
		}
		if taken {
			return errcode.ErrDuplicateEmail
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errcode.ErrDuplicateEmail.Wrap(err)
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account registered",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("role", user.Role),
	)
	return &user, nil
}

// Authenticate 校验邮箱、密码与角色。
// 邮箱不存在与密码错误返回同一个 ErrInvalidCredentials。
func (s *Service) Authenticate(ctx context.Context, email, password, role string) (*database.User, error) {
	email = NormalizeEmail(email)
	role = strings.TrimSpace(role)
	if email == "" || password == "" || role == "" {
		return nil, ErrMissingFields
	}

	var user database.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, errcode.ErrInvalidCredentials
	}
	if user.Role != role {
		return nil, errcode.ErrRoleMismatch
	}

	return &user, nil
}

// Get 按 id 读取账号。
func (s *Service) Get(ctx context.Context, id uint) (*database.User, error) {
	var user database.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// UpdateProfile 局部更新资料，角色不可修改。
// 第二个返回值是被新文件替换掉的旧对象 key，调用方负责清理。
func (s *Service) UpdateProfile(ctx context.Context, userID uint, upd ProfileUpdate) (*database.User, []string, error) {
	var (
		user     database.User
		replaced []string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("query user: %w", err)
		}

		if v := trimmed(upd.FullName); v != "" {
			user.FullName = v
		}
		if v := trimmed(upd.PhoneNumber); v != "" {
			user.PhoneNumber = v
		}
		if upd.Bio != nil {
			user.Bio = strings.TrimSpace(*upd.Bio)
		}
		if upd.Skills != nil {
			user.Skills = ParseSkills(*upd.Skills)
		}
		if upd.Email != nil {
			// 冲突交给 email 唯一索引，Save 时映射为 409。
			if email := NormalizeEmail(*upd.Email); email != "" {
				user.Email = email
			}
		}
		if upd.ResumeKey != nil {
			if user.ResumeKey != "" && user.ResumeKey != *upd.ResumeKey {
				replaced = append(replaced, user.ResumeKey)
			}
			user.ResumeKey = *upd.ResumeKey
			if upd.ResumeOriginalName != nil {
				user.ResumeOriginalName = *upd.ResumeOriginalName
			}
		}
		if upd.AvatarKey != nil {
			if user.AvatarKey != "" && user.AvatarKey != *upd.AvatarKey {
				replaced = append(replaced, user.AvatarKey)
			}
			user.AvatarKey = *upd.AvatarKey
		}

		if err := tx.Save(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errcode.ErrDuplicateEmail.Wrap(err)
			}
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("profile updated", slog.Uint64("user_id", uint64(user.ID)))
	return &user, replaced, nil
}

func emailTaken(tx *gorm.DB, email string) (bool, error) {
	var count int64
	if err := tx.Model(&database.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
