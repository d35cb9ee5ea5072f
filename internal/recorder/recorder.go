package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"keyreel/internal/artifacts"
	"keyreel/internal/logging"
	"keyreel/internal/services"
)

// Region is the pixel rectangle of the screen being captured.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Options tunes a capture session.
type Options struct {
	// ShowRegion draws a border around the captured region while recording.
	ShowRegion bool
	// Scale720p downscales the capture to 1280x720.
	Scale720p bool
}

// Session describes one recording session. Ownership of the produced files
// transfers to the post-processing pipeline by path once Stop completes.
type Session struct {
	ID          string
	StartedAt   time.Time
	Region      Region
	OutputDir   string
	VideoPath   string
	LogPath     string
	EncoderArgs []string
}

// StopResult reports how a session ended.
type StopResult struct {
	Session    *Session
	DurationMs int64
	// Forced is true when the encoder ignored the graceful quit and was killed.
	Forced bool
	// ExitError carries a non-clean encoder exit, raw. An encoder killed
	// during a forced stop reports an error here as well.
	ExitError string
}

type activeSession struct {
	session *Session
	proc    Process
	logFile *os.File

	done    chan struct{}
	exitErr error
}

// Manager owns at most one capture subprocess at a time. A file lock makes
// the single-session guarantee hold across processes.
type Manager struct {
	logger       *slog.Logger
	ffmpegBinary string
	stopGrace    time.Duration
	lock         *flock.Flock

	// start hook is injectable for tests.
	start StartFunc

	mu     sync.Mutex
	active *activeSession
}

// New constructs a session manager. lockPath guards against concurrent
// recordings from other processes.
func New(logger *slog.Logger, ffmpegBinary, lockPath string, stopGrace time.Duration) *Manager {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if stopGrace <= 0 {
		stopGrace = 1500 * time.Millisecond
	}
	return &Manager{
		logger:       logging.NewComponentLogger(logger, "recorder"),
		ffmpegBinary: ffmpegBinary,
		stopGrace:    stopGrace,
		lock:         flock.New(lockPath),
		start:        startExecProcess,
	}
}

// WithStartFunc overrides subprocess creation (for testing).
func (m *Manager) WithStartFunc(start StartFunc) {
	m.start = start
}

// IsActive reports whether a capture subprocess is currently running.
// The UI polls this; there is no push notification for unexpected exits.
func (m *Manager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return false
	}
	select {
	case <-m.active.done:
		return false
	default:
		return true
	}
}

// Session returns the session owned by the manager, or nil.
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	return m.active.session
}

// Start spawns the capture encoder for the given region and session directory
// and returns immediately; recording proceeds until Stop.
func (m *Manager) Start(ctx context.Context, region Region, outputDir string, opts Options) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, services.Wrap(services.ErrAlreadyRunning, "recorder", "start", "a recording session is already active", nil)
	}

	normalized, err := normalizeRegion(region)
	if err != nil {
		return nil, err
	}

	locked, err := m.lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "recorder", "acquire lock", m.lock.Path(), err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrAlreadyRunning, "recorder", "start", "another keyreel process is recording", nil)
	}

	session, err := m.launch(ctx, normalized, outputDir, opts)
	if err != nil {
		_ = m.lock.Unlock()
		return nil, err
	}
	return session, nil
}

func (m *Manager) launch(ctx context.Context, region Region, outputDir string, opts Options) (*Session, error) {
	if _, err := exec.LookPath(m.ffmpegBinary); err != nil {
		return nil, services.Wrap(services.ErrEncoderNotFound, "recorder", "start", fmt.Sprintf("binary %q not found", m.ffmpegBinary), err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "recorder", "create session directory", outputDir, err)
	}

	session := &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Region:    region,
		OutputDir: outputDir,
		VideoPath: artifacts.VideoPath(outputDir),
		LogPath:   filepath.Join(outputDir, artifacts.EncoderLog),
	}
	session.EncoderArgs = buildCaptureArgs(region, session.VideoPath, opts)

	logFile, err := os.OpenFile(session.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "recorder", "open encoder log", session.LogPath, err)
	}

	proc, err := m.start(ctx, m.ffmpegBinary, session.EncoderArgs, logFile)
	if err != nil {
		_ = logFile.Close()
		return nil, services.Wrap(services.ErrEncoderNotFound, "recorder", "spawn encoder", m.ffmpegBinary, err)
	}

	active := &activeSession{
		session: session,
		proc:    proc,
		logFile: logFile,
		done:    make(chan struct{}),
	}
	m.active = active

	go m.monitor(active)

	m.logger.Info("recording started",
		logging.String(logging.FieldSessionID, session.ID),
		logging.String("output_dir", outputDir),
		logging.Int("width", region.Width),
		logging.Int("height", region.Height),
	)
	return session, nil
}

// monitor reaps the encoder process. An exit before Stop is remembered and
// surfaced on the next Stop call; IsActive flips to false immediately.
func (m *Manager) monitor(active *activeSession) {
	active.exitErr = active.proc.Wait()
	close(active.done)
	if active.exitErr != nil {
		m.logger.Warn("encoder exited with error",
			logging.String(logging.FieldSessionID, active.session.ID),
			logging.Error(active.exitErr),
		)
	}
}

// Stop ends the active session: a graceful quit first, then a kill once the
// grace period lapses. It writes meta.json and releases the session lock.
// Calling Stop with no active session returns NOT_RUNNING.
func (m *Manager) Stop(ctx context.Context) (*StopResult, error) {
	m.mu.Lock()
	active := m.active
	m.active = nil
	m.mu.Unlock()

	if active == nil {
		return nil, services.Wrap(services.ErrNotRunning, "recorder", "stop", "no recording session is active", nil)
	}
	defer func() {
		_ = m.lock.Unlock()
	}()

	result := &StopResult{Session: active.session}

	select {
	case <-active.done:
		// Encoder already exited on its own.
	default:
		if err := active.proc.Quit(); err != nil {
			m.logger.Debug("graceful quit failed", logging.Error(err))
		}
		select {
		case <-active.done:
		case <-time.After(m.stopGrace):
			result.Forced = true
			if err := active.proc.Kill(); err != nil {
				m.logger.Warn("encoder kill failed", logging.Error(err))
			}
			<-active.done
		case <-ctx.Done():
			result.Forced = true
			_ = active.proc.Kill()
			<-active.done
		}
	}

	_ = active.logFile.Close()
	result.DurationMs = time.Since(active.session.StartedAt).Milliseconds()
	if active.exitErr != nil {
		result.ExitError = active.exitErr.Error()
	}

	if err := writeMeta(active.session, result.DurationMs); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "recorder", "write meta.json", "", err)
	}

	m.logger.Info("recording stopped",
		logging.String(logging.FieldSessionID, active.session.ID),
		logging.Int64("duration_ms", result.DurationMs),
		logging.Bool("forced", result.Forced),
	)
	return result, nil
}

// normalizeRegion validates dimensions and rounds them down to even values;
// capture codecs commonly reject odd dimensions.
func normalizeRegion(region Region) (Region, error) {
	if region.Width < 1 || region.Height < 1 {
		return Region{}, services.Wrap(services.ErrValidation, "recorder", "start",
			fmt.Sprintf("region %dx%d must be at least 1x1", region.Width, region.Height), nil)
	}
	region.Width &^= 1
	region.Height &^= 1
	if region.Width == 0 || region.Height == 0 {
		return Region{}, services.Wrap(services.ErrValidation, "recorder", "start",
			"region collapses to zero after even rounding", nil)
	}
	return region, nil
}
