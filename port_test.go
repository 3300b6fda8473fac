package biogas

import (
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

func TestPort_BasicRead(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	port, err := OpenPort(PortConfig{
		Device:    slave.Name(),
		BaudRate:  115200,
		Delimiter: "\n",
		Timeout:   time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })

	_, err = master.Write([]byte("hello\n"))
	require.NoError(t, err)

	line, err := port.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "hello", line)
}

func TestPort_SplitsMultipleLines(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	port, err := OpenPort(PortConfig{
		Device:    slave.Name(),
		BaudRate:  115200,
		Delimiter: "\n",
		Timeout:   time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })

	// Two lines in one write; the second comes from the carry-over.
	_, err = master.Write([]byte("one\ntwo\n"))
	require.NoError(t, err)

	line, err := port.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "one", line)

	line, err = port.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "two", line)
}

func TestPort_ReadTimeout(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	port, err := OpenPort(PortConfig{
		Device:    slave.Name(),
		BaudRate:  115200,
		Delimiter: "\n",
		Timeout:   50 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })

	start := time.Now()
	_, err = port.ReadLine()
	require.ErrorIs(t, err, ErrReadTimeout)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestPort_WriteLine(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	port, err := OpenPort(PortConfig{
		Device:    slave.Name(),
		BaudRate:  115200,
		Delimiter: "\n",
		Timeout:   time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })

	line := "C,START"
	newline := "\r\n"
	require.NoError(t, port.WriteLine(line, newline))

	buf := make([]byte, len(line)+len(newline))
	n, err := master.Read(buf)
	require.NoError(t, err)
	require.Equal(t, line+newline, string(buf[:n]))
}

func TestPort_MasterCloseIsHangup(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { slave.Close() })

	port, err := OpenPort(PortConfig{
		Device:    slave.Name(),
		BaudRate:  115200,
		Delimiter: "\n",
		Timeout:   time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })

	require.NoError(t, master.Close())

	_, err = port.ReadLine()
	require.ErrorIs(t, err, ErrDeviceHangup)
}

func TestPort_CloseUnblocksRead(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	port, err := OpenPort(PortConfig{
		Device:    slave.Name(),
		BaudRate:  115200,
		Delimiter: "\n",
		Timeout:   10 * time.Second,
	})
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() {
		_, err := port.ReadLine()
		errs <- err
	}()

	// Give the goroutine a chance to block in poll.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, port.Close())

	select {
	case err := <-errs:
		require.ErrorIs(t, err, ErrPortClosed)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for ReadLine to unblock after Close")
	}

	// Second Close is a no-op.
	require.NoError(t, port.Close())
}
