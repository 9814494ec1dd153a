package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Store 文件持久化的访问令牌存储（CLI场景下等价于浏览器 localStorage）。
// 实现 api.TokenSource：401时由客户端调用 Invalidate 清除会话。
type Store struct {
	mu     sync.Mutex
	path   string
	token  string
	loaded bool
	logger *zap.Logger
}

// NewStore 创建token存储，path 为token文件路径
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

// Token 返回当前token；过期或缺失返回空串
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.loadLocked()
	}
	if s.token == "" {
		return ""
	}
	if expired(s.token) {
		s.logger.Info("stored token expired, clearing")
		s.clearLocked()
		return ""
	}
	return s.token
}

// Set 写入新token并落盘
func (s *Store) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = strings.TrimSpace(token)
	s.loaded = true
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(s.token+"\n"), 0o600)
}

// Invalidate 清除token并删除文件
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Store) loadLocked() {
	s.loaded = true
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("read token file", zap.String("path", s.path), zap.Error(err))
		}
		return
	}
	s.token = strings.TrimSpace(string(data))
}

func (s *Store) clearLocked() {
	s.token = ""
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("remove token file", zap.String("path", s.path), zap.Error(err))
	}
}

// expired 只读 exp 声明做本地预检，签名校验归后端。
// 解析失败不算过期，交给后端判定。
func expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
