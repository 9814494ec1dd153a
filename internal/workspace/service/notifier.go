package service

import "go.uber.org/zap"

// Notifier 面向用户的非阻塞提示通道（前端toast的等价物）。
// 业务错误走这里提示，流程性错误仍以 error 返回。
type Notifier interface {
	Success(msg string)
	Warning(msg string)
	Error(msg string)
	Info(msg string)
}

// Confirmer 需要用户确认的危险操作（如锁定BOQ）
type Confirmer interface {
	Confirm(prompt string) bool
}

// LogNotifier 用日志实现的默认Notifier
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(msg string) { n.logger.Info(msg, zap.String("level", "success")) }
func (n *LogNotifier) Warning(msg string) { n.logger.Warn(msg) }
func (n *LogNotifier) Error(msg string)   { n.logger.Error(msg) }
func (n *LogNotifier) Info(msg string)    { n.logger.Info(msg) }

// AlwaysConfirm 总是放行的Confirmer（测试/脚本用）
type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(string) bool { return true }
