package dto

// ── shifts-api 请求 ──

// PublishShiftRequest 发布班次
// date 形如 2006-01-02，start_time / end_time 形如 15:04，按组织时区解释
type PublishShiftRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	Date       string `json:"date"        binding:"required"`
	StartTime  string `json:"start_time"  binding:"required"`
	EndTime    string `json:"end_time"    binding:"required"`
	Role       string `json:"role"`
	Location   string `json:"location"`
}

// ConflictCheckRequest 冲突预检
// 给定 date 时 start_time / end_time 按 HH:MM 解释，否则按 RFC3339 绝对时间
type ConflictCheckRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time" binding:"required"`
	EndTime    string `json:"end_time"   binding:"required"`
	Location   string `json:"location"`
}

// SwapShiftsRequest 两方换班
type SwapShiftsRequest struct {
	EmployeeIDA string `json:"employee_id_a" binding:"required"`
	ShiftIDA    string `json:"shift_id_a"    binding:"required"`
	EmployeeIDB string `json:"employee_id_b" binding:"required"`
	ShiftIDB    string `json:"shift_id_b"    binding:"required"`
	Commit      bool   `json:"commit"`
	Reason      string `json:"reason"`
}

// TrackRequest 打卡
// action_time 缺省为服务器当前时间；pin 为考勤机场景的可选校验项
type TrackRequest struct {
	EmployeeID string   `json:"employee_id" binding:"required"`
	ActionType string   `json:"action_type" binding:"required,oneof=clock_in clock_out"`
	ActionTime string   `json:"action_time"` // RFC3339
	PIN        string   `json:"pin"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

// OvertimeLogRequest 补录下班时间并结算加班
type OvertimeLogRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	Date       string `json:"date"        binding:"required"` // 2006-01-02
	CheckOut   string `json:"check_out"   binding:"required"` // RFC3339 或 HH:MM（与 date 合成）
}

// RespondShiftRequest 班次状态流转（员工接受/拒绝、经理确认/取消）
type RespondShiftRequest struct {
	ShiftID string `json:"shift_id" binding:"required"`
	Status  string `json:"status"   binding:"required"`
	Reason  string `json:"reason"`
}

// ── shifts-api 响应 ──

// ShiftResponse 班次视图
type ShiftResponse struct {
	ID           string  `json:"id"`
	EmployeeID   *string `json:"employee_id,omitempty"`
	EmployeeName string  `json:"employee_name,omitempty"`
	Title        string  `json:"title"`
	Location     string  `json:"location,omitempty"`
	StartTime    string  `json:"start_time"` // RFC3339
	EndTime      string  `json:"end_time"`
	Status       string  `json:"status"`
}

// PublishShiftResult 发布结果：冲突报告或新建班次，二者必居其一
type PublishShiftResult struct {
	Conflict          bool            `json:"conflict"`
	ConflictingShifts []ShiftResponse `json:"conflicting_shifts,omitempty"`
	Schedule          *ShiftResponse  `json:"schedule,omitempty"`
	AI                *string         `json:"ai,omitempty"`
}

// ConflictCheckResult 预检结果
type ConflictCheckResult struct {
	Conflict  bool            `json:"conflict"`
	Conflicts []ShiftResponse `json:"conflicts"`
	AI        *string         `json:"ai,omitempty"`
}

// SwapDetails 换班前后视图
type SwapDetails struct {
	ShiftA ShiftResponse `json:"shift_a"`
	ShiftB ShiftResponse `json:"shift_b"`
}

// SwapShiftsResult 换班结果
// commit=false 为干跑校验；committed=true 表示两条归属已原子互换
type SwapShiftsResult struct {
	Valid     bool            `json:"valid"`
	Reasons   []string        `json:"reasons"`
	Committed bool            `json:"committed"`
	Details   *SwapDetails    `json:"details,omitempty"`
	Conflicts []ShiftResponse `json:"conflicts,omitempty"`
	AI        *string         `json:"ai,omitempty"`
}

// ComplianceFlags 打卡合规标记
type ComplianceFlags struct {
	LateClockIn bool `json:"late_clock_in"`
	EarlyLeave  bool `json:"early_leave"`
	NoShow      bool `json:"no_show"`
	Overtime    bool `json:"overtime"`
}

// ComplianceDetail 规则评估器的原始判定
type ComplianceDetail struct {
	Compliant        bool `json:"compliant"`
	DeviationMinutes int  `json:"deviation_minutes"`
}

// AttendanceResponse 考勤记录视图
type AttendanceResponse struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	Date            string  `json:"date"`
	CheckIn         *string `json:"check_in,omitempty"`
	CheckOut        *string `json:"check_out,omitempty"`
	ActiveSession   bool    `json:"active_session"`
	WorkingMinutes  int     `json:"working_minutes"`
	OvertimeMinutes int     `json:"overtime_minutes"`
}

// TrackResult 打卡结果
type TrackResult struct {
	Flags      ComplianceFlags    `json:"flags"`
	Compliance *ComplianceDetail  `json:"compliance,omitempty"`
	Record     AttendanceResponse `json:"record"`
	AI         *string            `json:"ai,omitempty"`
}

// OvertimeLogResult 加班结算结果
type OvertimeLogResult struct {
	Attendance AttendanceResponse `json:"attendance"`
	AI         *string            `json:"ai,omitempty"`
}
