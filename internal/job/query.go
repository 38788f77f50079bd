package job

import (
	"strconv"
	"strings"

	"gorm.io/gorm"

	"jobverse/internal/errcode"
)

var ErrInvalidSalaryRange = errcode.BadRequest("Salary range must be numeric.")

// Query 是职位列表的查询条件，只有 KeywordQuery 与 FilterQuery 两种实现。
type Query interface {
	apply(db *gorm.DB) *gorm.DB
}

// KeywordQuery 在标题或描述中做不区分大小写的子串匹配。
type KeywordQuery struct {
	Keyword string
}

// FilterQuery 组合筛选：Role 匹配标题子串，薪资区间为闭区间，SalaryMax 为 nil 表示不设上限。
// 零值表示不过滤。
type FilterQuery struct {
	Role      string
	Location  string
	SalaryMin *float64
	SalaryMax *float64
}

func (q KeywordQuery) apply(db *gorm.DB) *gorm.DB {
	pattern := likePattern(q.Keyword)
	return db.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", pattern, pattern)
}

func (q FilterQuery) apply(db *gorm.DB) *gorm.DB {
	if role := strings.TrimSpace(q.Role); role != "" {
		db = db.Where("LOWER(title) LIKE ? ESCAPE '\\'", likePattern(role))
	}
	if location := strings.TrimSpace(q.Location); location != "" {
		db = db.Where("LOWER(location) LIKE ? ESCAPE '\\'", likePattern(location))
	}
	if q.SalaryMin != nil {
		db = db.Where("salary >= ?", *q.SalaryMin)
	}
	if q.SalaryMax != nil {
		db = db.Where("salary <= ?", *q.SalaryMax)
	}
	return db
}

// ParseQuery 把查询参数转换为 Query：keyword 非空时优先，其余参数被忽略。
func ParseQuery(keyword, role, location, salaryMin, salaryMax string) (Query, error) {
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		return KeywordQuery{Keyword: keyword}, nil
	}

	q := FilterQuery{Role: strings.TrimSpace(role), Location: strings.TrimSpace(location)}
	var err error
	if q.SalaryMin, err = parseBound(salaryMin); err != nil {
		return nil, err
	}
	if q.SalaryMax, err = parseBound(salaryMax); err != nil {
		return nil, err
	}
	return q, nil
}

func parseBound(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "infinity") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, ErrInvalidSalaryRange
	}
	return &v, nil
}

func likePattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
