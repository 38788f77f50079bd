package job

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"jobverse/internal/errcode"
)

var (
	ErrMissingFields     = errcode.BadRequest("All fields are required.")
	ErrEmptyRequirements = errcode.BadRequest("Requirements must contain at least one entry.")
	ErrInvalidPosition   = errcode.BadRequest("Position must be a positive integer.")
	ErrInvalidCompanyID  = errcode.BadRequest("Company id is invalid.")
)

// Draft 是职位的原始输入。前端既可能传数字也可能传数字字符串，
// 因此数值类字段保持 any，由 normalize 统一解析；nil 表示未提供。
type Draft struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements any    `json:"requirements"`
	Salary       any    `json:"salary"`
	Location     string `json:"location"`
	JobType      string `json:"jobType"`
	Experience   any    `json:"experience"`
	Position     any    `json:"position"`
	CompanyID    any    `json:"companyId"`
}

// fields 是 Draft 解析后的结果，指针为 nil 表示该字段未提供。
type fields struct {
	title        *string
	description  *string
	requirements []string
	salary       *float64
	location     *string
	jobType      *string
	experience   *string
	position     *int
	companyID    *uint
}

// normalize 解析 Draft；requireAll 为 true 时任何缺失字段都返回 ErrMissingFields。
func (d Draft) normalize(requireAll bool) (fields, error) {
	var f fields

	f.title = nonBlank(d.Title)
	f.description = nonBlank(d.Description)
	f.location = nonBlank(d.Location)
	f.jobType = nonBlank(d.JobType)
	if exp, ok := scalarString(d.Experience); ok {
		f.experience = &exp
	}

	if requireAll {
		present := f.title != nil && f.description != nil && f.location != nil && f.jobType != nil &&
			f.experience != nil && provided(d.Requirements) && provided(d.Salary) &&
			provided(d.Position) && provided(d.CompanyID)
		if !present {
			return fields{}, ErrMissingFields
		}
	}

	if provided(d.Requirements) {
		reqs, err := SplitRequirements(d.Requirements)
		if err != nil {
			return fields{}, err
		}
		f.requirements = reqs
	}
	if provided(d.Salary) {
		salary, err := ParseSalary(d.Salary)
		if err != nil {
			return fields{}, err
		}
		f.salary = &salary
	}
	if provided(d.Position) {
		position, err := parsePositiveInt(d.Position)
		if err != nil {
			return fields{}, ErrInvalidPosition
		}
		f.position = &position
	}
	if provided(d.CompanyID) {
		id, err := parsePositiveInt(d.CompanyID)
		if err != nil {
			return fields{}, ErrInvalidCompanyID
		}
		companyID := uint(id)
		f.companyID = &companyID
	}

	return f, nil
}

// SplitRequirements 接受逗号分隔字符串或字符串数组，去空白并丢弃空项，结果不能为空。
func SplitRequirements(v any) ([]string, error) {
	var parts []string
	switch value := v.(type) {
	case string:
		parts = strings.Split(value, ",")
	case []string:
		parts = value
	case []any:
		for _, item := range value {
			s, ok := scalarString(item)
			if !ok {
				continue
			}
			parts = append(parts, s)
		}
	default:
		return nil, ErrEmptyRequirements
	}

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyRequirements
	}
	return out, nil
}

// ParseSalary 接受数字或数字字符串，其余情况返回 ErrInvalidSalary。
func ParseSalary(v any) (float64, error) {
	var salary float64
	switch value := v.(type) {
	case float64:
		salary = value
	case int:
		salary = float64(value)
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return 0, errcode.ErrInvalidSalary
		}
		salary = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, errcode.ErrInvalidSalary
		}
		salary = f
	default:
		return 0, errcode.ErrInvalidSalary
	}
	if math.IsNaN(salary) || math.IsInf(salary, 0) || salary < 0 {
		return 0, errcode.ErrInvalidSalary
	}
	return salary, nil
}

func parsePositiveInt(v any) (int, error) {
	var n float64
	switch value := v.(type) {
	case float64:
		n = value
	case int:
		n = float64(value)
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return 0, err
		}
		n = f
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, err
		}
		n = float64(i)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if n <= 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return 0, fmt.Errorf("not a positive integer: %v", v)
	}
	return int(n), nil
}

// provided 判断原始值是否出现：nil 与空白字符串视为未提供。
func provided(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(value) != ""
	default:
		return true
	}
}

func scalarString(v any) (string, bool) {
	switch value := v.(type) {
	case string:
		s := strings.TrimSpace(value)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), true
	case int:
		return strconv.Itoa(value), true
	case json.Number:
		return value.String(), true
	default:
		return "", false
	}
}

func nonBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
