package server

import (
	"bytes"
	"errors"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/patdev/device"
)

func newTestServer(t *testing.T) (dev *device.Device, srv *Server) {
	t.Helper()
	require := require.New(t)

	dir := t.TempDir()
	dev = device.New()
	srv = New(dev, Config{
		ControlPath: filepath.Join(dir, "control.sock"),
		DataPath:    filepath.Join(dir, "data.sock"),
	})

	require.NoError(srv.Register())
	srv.Serve()
	t.Cleanup(func() { srv.Close() })

	return
}

// controlWrite replaces the pattern through the control socket.
func controlWrite(t *testing.T, path string, data []byte) {
	t.Helper()
	require := require.New(t)

	conn, err := net.Dial("unix", path)
	require.NoError(err)
	defer conn.Close()

	_, err = conn.Write(data)
	require.NoError(err)
	require.NoError(conn.(*net.UnixConn).CloseWrite())

	// The server replaces the pattern after it sees write-side EOF;
	// wait for it to drain the connection.
	one := make([]byte, 1)
	conn.Read(one)
}

// controlRead reads the pattern back through the control socket.
func controlRead(t *testing.T, path string) []byte {
	t.Helper()
	require := require.New(t)

	conn, err := net.Dial("unix", path)
	require.NoError(err)
	defer conn.Close()

	require.NoError(conn.(*net.UnixConn).CloseWrite())

	data, err := io.ReadAll(conn)
	require.NoError(err)
	return data
}

func TestServer_RegisterUnwind(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	dev := device.New()
	srv := New(dev, Config{
		ControlPath: filepath.Join(dir, "control.sock"),
		// A listen on a path inside a missing directory must fail.
		DataPath: filepath.Join(dir, "missing", "data.sock"),
	})

	err := srv.Register()
	require.Error(err)

	var regErr *RegisterError
	require.ErrorAs(err, &regErr)
	assert.Equal(StepData, regErr.Step)

	// The control endpoint was unwound; its socket path is free again.
	ln, err := net.Listen("unix", filepath.Join(dir, "control.sock"))
	require.NoError(err)
	ln.Close()
}

func TestServer_ControlRoundTrip(t *testing.T) {
	assert := assert.New(t)

	dev, srv := newTestServer(t)

	// Reading before any write: empty pattern, immediate EOF.
	assert.Empty(controlRead(t, srv.cfg.ControlPath))

	// controlWrite returns once the server has closed the connection,
	// by which point the replace has landed.
	controlWrite(t, srv.cfg.ControlPath, []byte("abc"))
	assert.Equal([]byte("abc"), dev.Pattern().Bytes())
	assert.Equal([]byte("abc"), controlRead(t, srv.cfg.ControlPath))

	// A control write is a wholesale replace, and truncates silently.
	controlWrite(t, srv.cfg.ControlPath, bytes.Repeat([]byte{'z'}, device.MaxPattern+100))
	assert.Equal(device.MaxPattern-1, dev.Pattern().Size())
	assert.Equal(bytes.Repeat([]byte{'z'}, device.MaxPattern-1), controlRead(t, srv.cfg.ControlPath))
}

func TestServer_DataStream(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dev, srv := newTestServer(t)
	dev.OpenControl().Write([]byte("ab"))

	conn, err := net.Dial("unix", srv.cfg.DataPath)
	require.NoError(err)
	defer conn.Close()

	out := make([]byte, 7)
	_, err = io.ReadFull(conn, out)
	require.NoError(err)
	assert.Equal("abababa", string(out))
}

func TestServer_DataEmptyPattern(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	_, srv := newTestServer(t)

	conn, err := net.Dial("unix", srv.cfg.DataPath)
	require.NoError(err)
	defer conn.Close()

	// Nothing stored: the stream ends immediately.
	data, err := io.ReadAll(conn)
	require.NoError(err)
	assert.Empty(data)
}

func TestServer_DataBusy(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dev, srv := newTestServer(t)
	dev.OpenControl().Write([]byte("x"))

	first, err := net.Dial("unix", srv.cfg.DataPath)
	require.NoError(err)

	// Reading proves the first session is live before contending.
	out := make([]byte, 4)
	_, err = io.ReadFull(first, out)
	require.NoError(err)

	second, err := net.Dial("unix", srv.cfg.DataPath)
	require.NoError(err)
	defer second.Close()

	// The second connection is refused: closed without data.
	data, err := io.ReadAll(second)
	require.NoError(err)
	assert.Empty(data)

	// Closing the first session frees the slot.
	first.Close()
	require.Eventually(func() bool {
		conn, err := net.Dial("unix", srv.cfg.DataPath)
		if err != nil {
			return false
		}
		defer conn.Close()
		got := make([]byte, 1)
		_, err = io.ReadFull(conn, got)
		return err == nil && got[0] == 'x'
	}, time.Second, 10*time.Millisecond)
}

func TestServer_DataWriteAccepted(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dev, srv := newTestServer(t)
	dev.OpenControl().Write([]byte("abc"))

	conn, err := net.Dial("unix", srv.cfg.DataPath)
	require.NoError(err)
	defer conn.Close()

	// A data-side write is swallowed without breaking the connection
	// or touching the pattern.
	_, err = conn.Write([]byte("garbage"))
	require.NoError(err)

	out := make([]byte, 6)
	_, err = io.ReadFull(conn, out)
	require.NoError(err)
	assert.Equal("abcabc", string(out))
	assert.Equal([]byte("abc"), dev.Pattern().Bytes())
}

func TestServer_CloseRemovesEndpoints(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	dev := device.New()
	cfg := Config{
		ControlPath: filepath.Join(dir, "control.sock"),
		DataPath:    filepath.Join(dir, "data.sock"),
	}
	srv := New(dev, cfg)
	require.NoError(srv.Register())
	srv.Serve()

	require.NoError(srv.Close())

	_, err := net.Dial("unix", cfg.ControlPath)
	assert.Error(err)
	_, err = net.Dial("unix", cfg.DataPath)
	assert.Error(err)

	// Close after Close stays quiet.
	assert.NoError(srv.Close())
}

func TestRegisterError_Is(t *testing.T) {
	assert := assert.New(t)

	err := &RegisterError{Step: StepControl, Err: errors.New("no")}
	assert.True(errors.Is(err, &RegisterError{}))
	assert.NotEmpty(err.Error())
}
