package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"jobverse/internal/account"
	"jobverse/internal/auth"
	"jobverse/internal/config"
	"jobverse/internal/database"
	"jobverse/internal/errcode"
)

// admin 直接在数据库中创建账号（默认招聘方），随机口令只打印一次。
func main() {
	var (
		fullname = flag.String("fullname", "", "账号姓名（必填）")
		email    = flag.String("email", "", "登录邮箱（必填）")
		phone    = flag.String("phone", "", "联系电话（必填）")
		role     = flag.String("role", database.RoleRecruiter, "账号角色：candidate 或 recruiter")
		dbHost   = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort   = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName   = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser   = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass   = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode  = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	for name, value := range map[string]string{"fullname": *fullname, "email": *email, "phone": *phone} {
		if strings.TrimSpace(value) == "" {
			log.Fatalf("missing required flag: --%s", name)
		}
	}
	if !account.ValidRole(*role) {
		log.Fatalf("invalid role %q: must be candidate or recruiter", *role)
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	password, err := auth.GenerateRandomPassword(24)
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}

	accounts := account.NewService(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	user, err := accounts.Register(context.Background(), account.RegisterInput{
		FullName:    *fullname,
		Email:       *email,
		PhoneNumber: *phone,
		Password:    password,
		Role:        *role,
	})
	if err != nil {
		if errors.Is(err, errcode.ErrDuplicateEmail) {
			log.Fatalf("account %q already exists", account.NormalizeEmail(*email))
		}
		log.Fatalf("create account: %v", err)
	}

	fmt.Printf("已创建账号（角色：%s）：\n", user.Role)
	fmt.Printf("邮箱: %s\n", user.Email)
	fmt.Printf("初始密码: %s\n", password)
	fmt.Printf("提示：该密码仅显示一次，请妥善保存并尽快登录修改。\n")
}

// loadDatabaseConfig 命令行参数优先，其次读取与 API 进程相同的环境变量。
func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	cfg := config.DatabaseConfig{
		Host:     firstNonEmpty(host, os.Getenv("DATABASE_HOST"), "localhost"),
		Port:     port,
		Name:     firstNonEmpty(name, os.Getenv("POSTGRES_DB"), os.Getenv("DB_NAME")),
		User:     firstNonEmpty(user, os.Getenv("POSTGRES_USER"), os.Getenv("DB_USER")),
		Password: firstNonEmpty(password, os.Getenv("POSTGRES_PASSWORD"), os.Getenv("DB_PASSWORD")),
		SSLMode:  firstNonEmpty(sslmode, os.Getenv("DATABASE_SSLMODE"), "disable"),
	}
	if cfg.Port <= 0 {
		cfg.Port = 5432
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			cfg.Port = p
		}
	}

	switch {
	case cfg.Name == "":
		return config.DatabaseConfig{}, errors.New("database name is required (--db-name or POSTGRES_DB)")
	case cfg.User == "":
		return config.DatabaseConfig{}, errors.New("database user is required (--db-user or POSTGRES_USER)")
	case cfg.Password == "":
		return config.DatabaseConfig{}, errors.New("database password is required (--db-password or POSTGRES_PASSWORD)")
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
