package logger

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/Additional-Code/sistemact/internal/config"
)

func TestBuildLevels(t *testing.T) {
	cases := []struct {
		level string
		want  zapcore.Level
	}{
		{level: "debug", want: zapcore.DebugLevel},
		{level: "WARN", want: zapcore.WarnLevel},
		{level: "", want: zapcore.InfoLevel},
		{level: "verbose", want: zapcore.InfoLevel},
	}
	for _, tc := range cases {
		for _, encoding := range []string{"json", "console"} {
			logger, err := Build(config.Observability{LogLevel: tc.level, LogEncoding: encoding, ServiceName: "sistemact"})
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tc.want), "%s/%s", tc.level, encoding)
			if tc.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tc.want-1), "%s/%s", tc.level, encoding)
			}
		}
	}
}

func TestIgnoreSyncErr(t *testing.T) {
	assert.NoError(t, ignoreSyncErr(nil))
	assert.NoError(t, ignoreSyncErr(syscall.EINVAL))
	assert.NoError(t, ignoreSyncErr(&wrapped{syscall.ENOTTY}))
	assert.Error(t, ignoreSyncErr(syscall.EIO))
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "sync /dev/stderr: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }
