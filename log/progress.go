package log

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oqtopus-team/qsim/common"
	"github.com/oqtopus-team/qsim/core"
	"go.uber.org/zap"
)

const ProgressLogTaskName = "progress_log"

const (
	queueLengthKeyInMetrics = "queue_length"
	finishedKeyInMetrics    = "finished"
	totalKeyInMetrics       = "total"
)

// ProgressLogTaskImpl reports how far a batch has got. With FileDir set it
// also appends JSON metrics to a daily file there.
type ProgressLogTaskImpl struct {
	FileDir string

	dl *dailyLogger
	ml *slog.Logger
	sc *core.SystemComponents

	core.DefaultTaskImpl
}

func (p *ProgressLogTaskImpl) Setup() error {
	p.sc = core.GetSystemComponents()
	if p.sc == nil {
		return fmt.Errorf("%w: system components is not initialized", core.ErrConfiguration)
	}
	if p.FileDir == "" {
		return nil
	}
	if err := common.IsDirWritable(p.FileDir); err != nil {
		zap.L().Error("failed to set up progress log task", zap.Error(err))
		return fmt.Errorf("failed to write to %s: %w", p.FileDir, err)
	}
	p.dl = newDailyLogger(p.FileDir)
	p.ml = slog.New(slog.NewJSONHandler(p.dl, nil))
	return nil
}

// Progress counts the finished jobs among those stored in the DB.
func Progress(sc *core.SystemComponents) (finished, total int) {
	_ = sc.Invoke(func(d core.DBManager) {
		for _, j := range d.List() {
			total++
			if j.IsFinished() {
				finished++
			}
		}
	})
	return
}

func (p *ProgressLogTaskImpl) Task() {
	finished, total := Progress(p.sc)
	queued := p.sc.GetCurrentQueueSize()
	zap.L().Info(fmt.Sprintf("progress: %d/%d jobs finished, %d queued", finished, total, queued))
	if p.ml != nil {
		p.ml.Info(
			"Metrics",
			slog.Int(queueLengthKeyInMetrics, queued),
			slog.Int(finishedKeyInMetrics, finished),
			slog.Int(totalKeyInMetrics, total),
		)
	}
}

func (p *ProgressLogTaskImpl) Cleanup() {
	if p.dl != nil {
		p.dl.Close()
	}
}

type dailyLogger struct {
	mu              sync.Mutex
	fileDir         string
	currentFileName string
	file            *os.File
	now             func() time.Time
}

func newDailyLogger(fileDir string) *dailyLogger {
	return &dailyLogger{
		fileDir: fileDir,
		now:     time.Now,
	}
}

func (dl *dailyLogger) Write(p []byte) (n int, err error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	fileName := fmt.Sprintf("metrics-%s.log", dl.now().Format("2006-01-02"))
	if dl.file == nil || dl.currentFileName != fileName {
		if dl.file != nil {
			dl.file.Close()
		}
		var err error
		dl.file, err = os.OpenFile(filepath.Join(dl.fileDir, fileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return 0, err
		}
		dl.currentFileName = fileName
	}

	return dl.file.Write(p)
}

func (dl *dailyLogger) Close() error {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file != nil {
		err := dl.file.Close()
		dl.file = nil
		return err
	}
	return nil
}
