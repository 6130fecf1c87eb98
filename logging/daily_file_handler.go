package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// logFile owns the currently open daily file. It is shared by pointer so
// WithAttrs/WithGroup clones keep writing to the same file.
type logFile struct {
    mutex    sync.Mutex
    file     *os.File
    fileName string
    logDir   string
}

type DailyFileHandler struct {
    out            *logFile
    defaultHandler slog.Handler
}

func NewDailyFileHandler(logDir string, opts *slog.HandlerOptions) (*DailyFileHandler, error) {
    if err := os.MkdirAll(logDir, 0755); err != nil {
        return nil, fmt.Errorf("failed to create log directory: %w", err)
    }

    h := &DailyFileHandler{
        out:            &logFile{logDir: logDir},
        defaultHandler: slog.NewTextHandler(os.Stdout, opts),
    }

    if err := h.out.rotateIfNeeded(); err != nil {
        return nil, err
    }

    return h, nil
}

func (lf *logFile) rotateIfNeeded() error {
    lf.mutex.Lock()
    defer lf.mutex.Unlock()

    fileName := fmt.Sprintf("knowbase-%s.log", time.Now().Format("2006-01-02"))
    filePath := filepath.Join(lf.logDir, fileName)

    if fileName == lf.fileName {
        return nil
    }

    if lf.file != nil {
        lf.file.Close()
    }

    f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
    if err != nil {
        return fmt.Errorf("failed to open log file: %w", err)
    }

    lf.file = f
    lf.fileName = fileName
    return nil
}

func (lf *logFile) write(line string) error {
    lf.mutex.Lock()
    defer lf.mutex.Unlock()
    _, err := lf.file.WriteString(line)
    return err
}

func (h *DailyFileHandler) Handle(ctx context.Context, r slog.Record) error {
    if err := h.out.rotateIfNeeded(); err != nil {
        // If rotation fails, at least log to stdout.
        return h.defaultHandler.Handle(ctx, r)
    }

    timeStr := r.Time.Format("2006/01/02 15:04:05.000")
    level := r.Level.String()

    var attrs string
    r.Attrs(func(a slog.Attr) bool {
        attrs += fmt.Sprintf(" %s=%v", a.Key, a.Value)
        return true
    })

    logLine := fmt.Sprintf("[%s] %-5s %s%s\n", timeStr, level, r.Message, attrs)

    err := h.out.write(logLine)

    // Also log to the default handler (stdout).
    if err2 := h.defaultHandler.Handle(ctx, r); err2 != nil {
        if err == nil {
            err = err2
        }
    }

    return err
}

func (h *DailyFileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
    return &DailyFileHandler{
        out:            h.out,
        defaultHandler: h.defaultHandler.WithAttrs(attrs),
    }
}

func (h *DailyFileHandler) WithGroup(name string) slog.Handler {
    return &DailyFileHandler{
        out:            h.out,
        defaultHandler: h.defaultHandler.WithGroup(name),
    }
}

func (h *DailyFileHandler) Enabled(ctx context.Context, level slog.Level) bool {
    return h.defaultHandler.Enabled(ctx, level)
}
