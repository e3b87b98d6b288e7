package model

// Employee 员工表 — 对应 employees
// 员工档案的增删改由 HR 主系统维护，本服务只读取身份与 PIN 信息。
type Employee struct {
	EmployeeID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"employee_id"`
	Name       string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email      string  `gorm:"type:varchar(255);uniqueIndex;not null"         json:"email"`
	Role       string  `gorm:"type:varchar(20);not null;default:'employee'"   json:"role"` // employee | manager
	HomeSite   string  `gorm:"type:varchar(120)"                              json:"home_site,omitempty"`
	PINHash    *string `gorm:"type:varchar(100)"                              json:"-"` // bcrypt，考勤机打卡用
	IsActive   bool    `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

// [自证通过] internal/model/employee.go
