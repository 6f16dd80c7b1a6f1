package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug lines.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

// Hooks returns h for every category, ready for [Register].
func (h *LogHooks) Hooks() Hooks {
	return Hooks{Planner: h, Sync: h, Cache: h, HTTP: h}
}

func (h *LogHooks) OnEvent(_ context.Context, userID, kind string) {
	h.logger.Debug("event", "user", userID, "kind", kind)
}

func (h *LogHooks) OnCommit(_ context.Context, userID, change string) {
	h.logger.Debug("commit", "user", userID, "change", change)
}

func (h *LogHooks) OnReject(_ context.Context, userID, code string) {
	h.logger.Debug("rejected", "user", userID, "code", code)
}

func (h *LogHooks) OnSyncStart(_ context.Context, userID string) {
	h.logger.Debug("sync start", "user", userID)
}

func (h *LogHooks) OnSyncComplete(_ context.Context, userID string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("sync failed", "user", userID, "duration", d, "err", err)
		return
	}
	h.logger.Debug("sync done", "user", userID, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("http", "method", method, "route", route, "status", status, "duration", d)
}

var (
	_ PlannerHooks = (*LogHooks)(nil)
	_ SyncHooks    = (*LogHooks)(nil)
	_ CacheHooks   = (*LogHooks)(nil)
	_ HTTPHooks    = (*LogHooks)(nil)
)
