package framebuffer

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
)

// DefaultProducer is the screen capture program run when no argv is given.
var DefaultProducer = []string{"screencap"}

// Launcher spawns the screen capture producer.
type Launcher struct {
	Argv   []string
	Env    []string // nil inherits the parent environment
	Logger *zap.Logger
}

// NewLauncher creates a launcher for argv, falling back to DefaultProducer.
func NewLauncher(argv []string, logger *zap.Logger) *Launcher {
	if len(argv) == 0 {
		argv = DefaultProducer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{Argv: argv, Logger: logger}
}

// Capture owns one running producer and the read end of its output pipe.
// Close must be called on every path; it releases the pipe and reaps the
// child exactly once.
type Capture struct {
	cmd    *exec.Cmd
	out    *os.File
	stderr *zapio.Writer
	logger *zap.Logger

	once     sync.Once
	exitCode int
}

// Start creates the pipe and spawns the producer with its stdout attached
// to the write end. The parent's copy of the write end is closed before
// returning so the read end sees EOF once the child exits.
func (l *Launcher) Start() (*Capture, error) {
	if len(l.Argv) == 0 {
		return nil, fmt.Errorf("%w: empty producer argv", ErrSpawn)
	}
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r, w, err := os.Pipe()
	if err != nil {
		logger.Error("framebuffer service pipe() failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrChannelSetup, err)
	}

	stderr := &zapio.Writer{Log: logger.Named("producer"), Level: zap.WarnLevel}

	cmd := exec.Command(l.Argv[0], l.Argv[1:]...)
	cmd.Env = l.Env
	cmd.Stdout = w
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		stderr.Close()
		logger.Error("exec() screencap failed",
			zap.Strings("argv", l.Argv),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, l.Argv[0], err)
	}
	w.Close()

	logger.Debug("producer started",
		zap.Strings("argv", l.Argv),
		zap.Int("pid", cmd.Process.Pid),
	)

	return &Capture{
		cmd:      cmd,
		out:      r,
		stderr:   stderr,
		logger:   logger,
		exitCode: -1,
	}, nil
}

// Read reads producer output.
func (c *Capture) Read(p []byte) (int, error) {
	return c.out.Read(p)
}

// Pid returns the producer's process id.
func (c *Capture) Pid() int {
	return c.cmd.Process.Pid
}

// ExitCode returns the producer exit code after Close, or -1.
func (c *Capture) ExitCode() int {
	return c.exitCode
}

// Close releases the read end and blocks until the producer exits. A child
// still writing gets EPIPE once the read end is gone, so the wait cannot
// hang on a full pipe. The exit status is logged, not returned.
func (c *Capture) Close() error {
	c.once.Do(func() {
		if err := c.out.Close(); err != nil {
			c.logger.Warn("failed to close producer pipe", zap.Error(err))
		}

		err := c.cmd.Wait()
		c.stderr.Close()
		if c.cmd.ProcessState != nil {
			c.exitCode = c.cmd.ProcessState.ExitCode()
		}

		var exitErr *exec.ExitError
		switch {
		case err == nil:
			c.logger.Debug("producer exited", zap.Int("pid", c.cmd.Process.Pid))
		case errors.As(err, &exitErr):
			c.logger.Info("producer exited abnormally",
				zap.Int("pid", c.cmd.Process.Pid),
				zap.String("state", exitErr.ProcessState.String()),
			)
		default:
			c.logger.Warn("producer wait failed", zap.Error(err))
		}
	})
	return nil
}
