package biogas

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Port is a raw, low-latency Linux serial port with line framing. Reads
// are bounded by a timeout so the owning producer can interleave shutdown
// and reconnect checks, and a self-pipe lets Close unblock a pending
// read immediately.
//
// ReadLine keeps partial-line carry-over between calls, so a Port must be
// read from a single goroutine. Close is safe from any goroutine and
// idempotent.
type Port struct {
	fd        int
	file      *os.File
	done      chan struct{}
	closeOnce sync.Once
	cfg       PortConfig
	pipeR     int // self-pipe read fd
	pipeW     int // self-pipe write fd
	pending   string
}

// PortConfig holds configuration for opening a serial port.
type PortConfig struct {
	Device    string
	BaudRate  int           // default 9600
	Delimiter string        // default LineDelimiter ("\r\n")
	Timeout   time.Duration // per-ReadLine bound, default 1s
}

func (c PortConfig) withDefaults() PortConfig {
	if c.BaudRate == 0 {
		c.BaudRate = 9600
	}
	if c.Delimiter == "" {
		c.Delimiter = LineDelimiter
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Second
	}
	return c
}

// OpenPort opens the device in raw mode at the configured baud rate.
func OpenPort(cfg PortConfig) (*Port, error) {
	cfg = cfg.withDefaults()

	fd, err := syscall.Open(cfg.Device, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0666)
	if err != nil {
		return nil, fmt.Errorf("open failed: %w", err)
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("get termios: %w", err)
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8

	// Baud rate
	baud := baudToUnix(cfg.BaudRate)
	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= baud

	// VMIN=1, VTIME=0 for immediate reads; poll supplies the timeout
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("set termios: %w", err)
	}

	// Back to blocking mode now that config is done
	syscall.SetNonblock(fd, false)

	// Self-pipe so Close can wake a blocked poll
	pipeFds := make([]int, 2)
	if err := unix.Pipe(pipeFds); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("pipe: %w", err)
	}

	return &Port{
		fd:    fd,
		file:  os.NewFile(uintptr(fd), cfg.Device),
		done:  make(chan struct{}),
		cfg:   cfg,
		pipeR: pipeFds[0],
		pipeW: pipeFds[1],
	}, nil
}

// WriteLine writes a line followed by newline to the serial port. Used
// for instrument commands such as "C,START".
func (p *Port) WriteLine(line string, newline string) error {
	_, err := p.file.WriteString(line + newline)
	return err
}

// ReadLine returns the next complete line without its delimiter. It
// blocks at most the configured Timeout and then returns ErrReadTimeout;
// partial input is kept for the next call. After Close it returns
// ErrPortClosed.
func (p *Port) ReadLine() (string, error) {
	if line, ok := p.takeLine(); ok {
		return line, nil
	}

	buf := make([]byte, 4096)
	deadline := time.Now().Add(p.cfg.Timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", ErrReadTimeout
		}

		pfd := []unix.PollFd{
			{Fd: int32(p.fd), Events: unix.POLLIN},
			{Fd: int32(p.pipeR), Events: unix.POLLIN},
		}
		n, err := unix.Poll(pfd, int(remaining.Milliseconds())+1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return "", err
		}
		select {
		case <-p.done:
			return "", ErrPortClosed
		default:
		}
		if n == 0 {
			return "", ErrReadTimeout
		}
		if pfd[1].Revents&unix.POLLIN != 0 {
			// Drain pipe
			var b [1]byte
			unix.Read(p.pipeR, b[:])
			return "", ErrPortClosed
		}
		if pfd[0].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			return "", ErrDeviceHangup
		}
		if pfd[0].Revents&unix.POLLIN != 0 {
			n, err := p.file.Read(buf)
			if err != nil {
				return "", err
			}
			p.pending += string(buf[:n])
			if line, ok := p.takeLine(); ok {
				return line, nil
			}
		}
	}
}

// takeLine splits one complete line off the pending carry-over.
func (p *Port) takeLine() (string, bool) {
	idx := strings.Index(p.pending, p.cfg.Delimiter)
	if idx < 0 {
		return "", false
	}
	line := p.pending[:idx]
	p.pending = p.pending[idx+len(p.cfg.Delimiter):]
	return line, true
}

// Close closes the serial port and unblocks any pending ReadLine.
// Safe to call multiple times; subsequent calls are no-ops.
func (p *Port) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		// Wake up poll using self-pipe
		if p.pipeW > 0 {
			unix.Write(p.pipeW, []byte{1})
		}
		if p.file != nil {
			err = p.file.Close()
		}
		if p.pipeR > 0 {
			unix.Close(p.pipeR)
		}
		if p.pipeW > 0 {
			unix.Close(p.pipeW)
		}
	})
	return err
}

func baudToUnix(baud int) uint32 {
	switch baud {
	case 4800:
		return unix.B4800
	case 9600:
		return unix.B9600
	case 19200:
		return unix.B19200
	case 38400:
		return unix.B38400
	case 57600:
		return unix.B57600
	case 115200:
		return unix.B115200
	case 230400:
		return unix.B230400
	default:
		return unix.B9600 // fallback
	}
}
