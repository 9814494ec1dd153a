package service

import (
	"go.uber.org/zap"

	"github.com/tvumtech/lumen/internal/workspace/api"
)

// Services 工作区服务集合
type Services struct {
	Save   *SaveService
	BOQ    *BOQService
	Import *ImportService

	client   *api.Client
	notifier Notifier
	logger   *zap.Logger
}

// NewServices 初始化所有服务
func NewServices(client *api.Client, notifier Notifier, confirmer Confirmer, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	save := NewSaveService(client, notifier, logger)
	return &Services{
		Save:     save,
		BOQ:      NewBOQService(client, notifier, confirmer, logger),
		Import:   NewImportService(save, logger),
		client:   client,
		notifier: notifier,
		logger:   logger,
	}
}

// NewSession 为一次子区域编辑流程开启新的构建器会话
func (s *Services) NewSession() *BuilderSession {
	return NewBuilderSession(s.client, s.notifier, s.logger)
}

// Client 底层API客户端
func (s *Services) Client() *api.Client {
	return s.client
}
