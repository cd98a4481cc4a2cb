//go:build unit
// +build unit

package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oqtopus-team/qsim/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		conf      *core.Conf
		wantLevel zapcore.Level
		wantError bool
	}{
		{
			name:      "stdout only",
			conf:      &core.Conf{LogLevel: "warn"},
			wantLevel: zapcore.WarnLevel,
		},
		{
			name:      "dev mode with debug",
			conf:      &core.Conf{DevMode: true, LogLevel: "debug"},
			wantLevel: zapcore.DebugLevel,
		},
		{
			name: "file log",
			conf: &core.Conf{
				EnableFileLog:      true,
				DisableStdoutLog:   true,
				LogDir:             t.TempDir(),
				LogLevel:           "error",
				LogRotationMaxDays: 7,
			},
			wantLevel: zapcore.ErrorLevel,
		},
		{
			name: "missing log dir",
			conf: &core.Conf{
				EnableFileLog:      true,
				LogDir:             filepath.Join(t.TempDir(), "missing"),
				LogRotationMaxDays: 7,
			},
			wantError: true,
		},
		{
			name: "no rotation days",
			conf: &core.Conf{
				EnableFileLog: true,
				LogDir:        t.TempDir(),
			},
			wantError: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.conf)
			if tt.wantError {
				assert.NotNil(t, err)
				return
			}
			require.Nil(t, err)
			assert.True(t, logger.Core().Enabled(tt.wantLevel))
			assert.False(t, logger.Core().Enabled(tt.wantLevel-1))
		})
	}
}

func TestFileLogIsWritten(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(&core.Conf{
		EnableFileLog:      true,
		DisableStdoutLog:   true,
		LogDir:             dir,
		LogLevel:           "info",
		LogRotationMaxDays: 1,
	})
	require.Nil(t, err)
	logger.Info("hello from qsim")
	_ = logger.Sync()

	files, err := filepath.Glob(filepath.Join(dir, "qsim-*.log"))
	require.Nil(t, err)
	require.Len(t, files, 1)
	b, err := os.ReadFile(files[0])
	require.Nil(t, err)
	assert.Contains(t, string(b), `"msg":"hello from qsim"`)
	assert.Contains(t, string(b), `"timestamp"`)
}

func TestDailyLogger(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	dl := newDailyLogger(dir)
	dl.now = func() time.Time { return day }
	defer dl.Close()

	_, err := dl.Write([]byte("first\n"))
	require.Nil(t, err)
	day = day.Add(2 * time.Minute)
	_, err = dl.Write([]byte("second\n"))
	require.Nil(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "metrics-2024-05-01.log"))
	require.Nil(t, err)
	assert.Equal(t, "first\n", string(b))
	b, err = os.ReadFile(filepath.Join(dir, "metrics-2024-05-02.log"))
	require.Nil(t, err)
	assert.Equal(t, "second\n", string(b))
}

func TestProgressLogTask(t *testing.T) {
	s := core.SCWithDBContainer()
	defer s.TearDown()
	jm, err := core.NewJobManager(&core.NormalJob{})
	require.Nil(t, err)
	jc, err := core.NewJobContext()
	require.Nil(t, err)

	for _, st := range []core.Status{core.SUCCEEDED, core.FAILED, core.READY} {
		jd := core.NewJobData()
		jd.ID = st.String()
		jd.Status = st
		j, err := jm.NewJobFromJobData(jd, jc)
		require.Nil(t, err)
		require.Nil(t, s.Submit(j))
	}
	finished, total := Progress(s)
	assert.Equal(t, 2, finished)
	assert.Equal(t, 3, total)

	dir := t.TempDir()
	p := &ProgressLogTaskImpl{FileDir: dir}
	require.Nil(t, p.Setup())
	p.Task()
	p.Cleanup()

	files, err := filepath.Glob(filepath.Join(dir, "metrics-*.log"))
	require.Nil(t, err)
	require.Len(t, files, 1)
	b, err := os.ReadFile(files[0])
	require.Nil(t, err)
	line := strings.TrimSpace(string(b))
	assert.Contains(t, line, `"queue_length":0`)
	assert.Contains(t, line, `"finished":2`)
	assert.Contains(t, line, `"total":3`)
}

func TestProgressLogTaskSetupError(t *testing.T) {
	s := core.SCWithDBContainer()
	defer s.TearDown()
	p := &ProgressLogTaskImpl{FileDir: filepath.Join(t.TempDir(), "missing")}
	assert.NotNil(t, p.Setup())
}
