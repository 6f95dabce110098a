package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesDailyFile(t *testing.T) {
	dir := t.TempDir()
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	log, err := New(dir, "debug", false)
	require.NoError(t, err)
	log.Infow("hello", "k", "v")
	_ = log.Sync()

	raw, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02")+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"hello"`)
	assert.Contains(t, string(raw), `"k":"v"`)
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(t.TempDir(), "chatty", false)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)
}

func TestContextRoundTrip(t *testing.T) {
	l := zap.NewNop().Sugar()
	got, ok := Lookup(WithContext(context.Background(), l))
	assert.True(t, ok)
	assert.Same(t, l, got)
	_, ok = Lookup(context.Background())
	assert.False(t, ok)
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "example.com", EmailDomain("john.doe@example.com"))
	assert.Equal(t, "", EmailDomain("nobody"))
	assert.Equal(t, "", EmailDomain("trailing@"))
}
