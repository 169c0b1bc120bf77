package zap

import (
	"errors"
	"testing"

	"github.com/unkn0wn-root/tiercache"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	boom := errors.New("boom")
	l.Debug("self heal", tiercache.Fields{"key": "k1", "reason": "corrupt"})
	l.Warn("tier failed", tiercache.Fields{"tier": 1, "err": boom})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries=%d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel || entries[0].Message != "self heal" {
		t.Fatalf("first entry = %+v", entries[0].Entry)
	}
	ctx := entries[0].ContextMap()
	if ctx["key"] != "k1" || ctx["reason"] != "corrupt" {
		t.Fatalf("fields = %v", ctx)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("level = %v", entries[1].Level)
	}
	if got := entries[1].ContextMap()["err"]; got != "boom" {
		t.Fatalf("err field = %v", got)
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	New(nil).Error("dropped", tiercache.Fields{"a": 1})
}
