package framebuffer

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLauncherStartAndReap(t *testing.T) {
	capture, err := helperLauncher(t, "rgb565").Start()
	require.NoError(t, err)
	assert.Positive(t, capture.Pid())

	out, err := io.ReadAll(capture)
	require.NoError(t, err, "read end must see EOF once the producer exits")
	assert.Len(t, out, UpstreamHeaderSize+16)

	require.NoError(t, capture.Close())
	assert.Equal(t, 0, capture.ExitCode())
}

func TestLauncherCloseIsIdempotent(t *testing.T) {
	capture, err := helperLauncher(t, "rgb565").Start()
	require.NoError(t, err)

	require.NoError(t, capture.Close())
	require.NoError(t, capture.Close())

	_, err = capture.Read(make([]byte, 1))
	assert.Error(t, err, "read end is released after Close")
}

func TestLauncherCloseBeforeDrainDoesNotHang(t *testing.T) {
	capture, err := helperLauncher(t, "large").Start()
	require.NoError(t, err)

	buf := make([]byte, 100)
	_, err = io.ReadFull(capture, buf)
	require.NoError(t, err)

	require.NoError(t, capture.Close())
	assert.NotEqual(t, 0, capture.ExitCode(), "producer dies on the broken pipe")
}

func TestLauncherExitStatusIgnored(t *testing.T) {
	capture, err := helperLauncher(t, "exit-code").Start()
	require.NoError(t, err)

	out, err := io.ReadAll(capture)
	require.NoError(t, err)
	assert.Len(t, out, UpstreamHeaderSize+16)

	assert.NoError(t, capture.Close())
	assert.Equal(t, 3, capture.ExitCode())
}

func TestLauncherSpawnFailure(t *testing.T) {
	l := NewLauncher([]string{"/nonexistent/screencap"}, zaptest.NewLogger(t))

	capture, err := l.Start()
	assert.Nil(t, capture)
	assert.ErrorIs(t, err, ErrSpawn)
	assert.True(t, IsLaunchFailure(err))
}

func TestLauncherEmptyArgv(t *testing.T) {
	_, err := (&Launcher{}).Start()
	assert.ErrorIs(t, err, ErrSpawn)
}

func TestNewLauncherDefaults(t *testing.T) {
	l := NewLauncher(nil, nil)
	assert.Equal(t, DefaultProducer, l.Argv)
	assert.NotNil(t, l.Logger)
}
