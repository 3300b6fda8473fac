package biogas

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Serial producer defaults.
const (
	DefaultBaudRate            = 9600
	DefaultReadTimeout         = time.Second
	DefaultReconnectBackoffMin = 250 * time.Millisecond
	DefaultReconnectBackoffMax = 10 * time.Second
	DefaultMaxReconnectRetries = 10
)

// SerialConfig configures a SerialProducer.
type SerialConfig struct {
	// Device is the serial port path, e.g. "/dev/ttyUSB0".
	Device string
	// BaudRate defaults to DefaultBaudRate.
	BaudRate int
	// ReadTimeout bounds each line read so shutdown and reconnect checks
	// run even on a silent link. Default DefaultReadTimeout.
	ReadTimeout time.Duration
	// Channels names the thermistor fields appended to each line, in
	// wire order. Default DefaultChannels.
	Channels []string
	// ReconnectBackoffMin is the first reopen delay, doubled on every
	// consecutive failure. Default DefaultReconnectBackoffMin.
	ReconnectBackoffMin time.Duration
	// ReconnectBackoffMax caps the exponential reopen delay. Default
	// DefaultReconnectBackoffMax.
	ReconnectBackoffMax time.Duration
	// MaxReconnectRetries is the number of consecutive failed reopen
	// attempts before the producer gives up and transitions to Failed.
	// Default DefaultMaxReconnectRetries.
	MaxReconnectRetries int
	// Sinks observe every pushed Reading; errors are non-fatal.
	Sinks []Sink
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c SerialConfig) withDefaults() SerialConfig {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.Channels == nil {
		c.Channels = DefaultChannels
	}
	if c.ReconnectBackoffMin <= 0 {
		c.ReconnectBackoffMin = DefaultReconnectBackoffMin
	}
	if c.ReconnectBackoffMax <= 0 {
		c.ReconnectBackoffMax = DefaultReconnectBackoffMax
	}
	if c.MaxReconnectRetries <= 0 {
		c.MaxReconnectRetries = DefaultMaxReconnectRetries
	}
	return c
}

// SerialProducer reads line-framed readings from a hardware serial link
// and pushes them into the shared buffer. Malformed lines are counted and
// dropped. On I/O failure the producer goes Reconnecting and reopens the
// device with bounded exponential backoff; after MaxReconnectRetries
// consecutive failures it transitions to Failed and stops.
//
// Readings parsed from the wire conform to the same schema as simulated
// ones, so consumers cannot tell the sources apart.
type SerialProducer struct {
	cfg     SerialConfig
	buf     *Buffer
	log     *slog.Logger
	metrics *ProducerMetrics

	mu        sync.Mutex
	state     State
	failErr   error
	malformed uint64
	port      *Port
	done      chan struct{}
	loopDone  chan struct{}
}

// NewSerialProducer creates an idle producer feeding buf. The device is
// not opened until Start.
func NewSerialProducer(buf *Buffer, cfg SerialConfig) *SerialProducer {
	cfg = cfg.withDefaults()
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &SerialProducer{
		cfg:     cfg,
		buf:     buf,
		log:     log.With("producer", "serial", "device", cfg.Device),
		metrics: NewProducerMetrics("serial"),
	}
}

// Metrics exposes the producer's Prometheus instruments for registration.
func (p *SerialProducer) Metrics() *ProducerMetrics { return p.metrics }

// State reports the current lifecycle state.
func (p *SerialProducer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the terminal reason once the producer is Failed, else nil.
func (p *SerialProducer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failErr
}

// Malformed returns how many lines were dropped because they failed to
// parse.
func (p *SerialProducer) Malformed() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.malformed
}

// Start opens the device and spawns the read loop. It returns
// *PortUnavailableError if the device cannot be opened and
// ErrAlreadyRunning unless the producer is Idle, Stopped or Failed.
func (p *SerialProducer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Idle && p.state != Stopped && p.state != Failed {
		return ErrAlreadyRunning
	}

	port, err := p.open()
	if err != nil {
		return &PortUnavailableError{Device: p.cfg.Device, Err: err}
	}

	p.port = port
	p.failErr = nil
	p.state = Running
	p.done = make(chan struct{})
	p.loopDone = make(chan struct{})
	go p.loop(p.done, p.loopDone)
	p.log.Info("serial producer started", "baud", p.cfg.BaudRate)
	return nil
}

// Stop requests termination, unblocks any pending read and waits for the
// loop to exit. No Reading is pushed after Stop returns.
func (p *SerialProducer) Stop() error {
	p.mu.Lock()
	if p.state != Running && p.state != Reconnecting {
		p.mu.Unlock()
		return ErrNotRunning
	}
	p.state = Stopping
	close(p.done)
	if p.port != nil {
		p.port.Close()
	}
	loopDone := p.loopDone
	p.mu.Unlock()

	<-loopDone

	p.mu.Lock()
	p.state = Stopped
	p.port = nil
	p.mu.Unlock()
	p.log.Info("serial producer stopped")
	return nil
}

func (p *SerialProducer) open() (*Port, error) {
	return OpenPort(PortConfig{
		Device:   p.cfg.Device,
		BaudRate: p.cfg.BaudRate,
		Timeout:  p.cfg.ReadTimeout,
	})
}

func (p *SerialProducer) loop(done <-chan struct{}, loopDone chan<- struct{}) {
	defer close(loopDone)

	for {
		select {
		case <-done:
			return
		default:
		}

		p.mu.Lock()
		port := p.port
		p.mu.Unlock()
		if port == nil {
			return
		}

		line, err := port.ReadLine()
		switch {
		case err == nil:
			p.handleLine(line)
		case errors.Is(err, ErrReadTimeout):
			// Silent link; loop around to re-check shutdown.
		case errors.Is(err, ErrPortClosed):
			return
		default:
			p.log.Warn("serial read failed", "err", err)
			if !p.reconnect(done) {
				return
			}
		}
	}
}

func (p *SerialProducer) handleLine(line string) {
	r, err := ParseLine(line, p.cfg.Channels)
	if err != nil {
		p.mu.Lock()
		p.malformed++
		p.mu.Unlock()
		p.metrics.MalformedLines.Inc()
		p.log.Debug("dropping malformed line", "err", err)
		return
	}
	r.Timestamp = time.Now()

	err = p.buf.Push(r)
	var ooo *OutOfOrderError
	if errors.As(err, &ooo) {
		// Clock went backwards or two lines landed in the same tick;
		// nudge past the buffered latest.
		r.Timestamp = ooo.Last.Add(time.Microsecond)
		err = p.buf.Push(r)
	}
	if err != nil {
		p.log.Warn("dropping reading", "err", err)
		return
	}
	p.metrics.ReadingsProduced.Inc()
	p.metrics.BufferLength.Set(float64(p.buf.Len()))

	for _, s := range p.cfg.Sinks {
		if werr := s.Write(r); werr != nil {
			p.metrics.SinkErrors.Inc()
			p.log.Warn("sink write failed", "err", werr)
		}
	}
}

// reconnect closes the dead port and reopens it with exponential backoff.
// It returns false when the producer should exit the loop, either because
// shutdown was requested or retries were exhausted (state Failed).
func (p *SerialProducer) reconnect(done <-chan struct{}) bool {
	p.mu.Lock()
	if p.state != Running {
		p.mu.Unlock()
		return false
	}
	p.state = Reconnecting
	if p.port != nil {
		p.port.Close()
		p.port = nil
	}
	p.mu.Unlock()

	delay := p.cfg.ReconnectBackoffMin
	for attempt := 1; ; attempt++ {
		p.metrics.Reconnects.Inc()
		p.log.Info("reconnecting", "attempt", attempt, "delay", delay)

		select {
		case <-done:
			return false
		case <-time.After(delay):
		}

		port, err := p.open()
		if err == nil {
			p.mu.Lock()
			if p.state != Reconnecting {
				p.mu.Unlock()
				port.Close()
				return false
			}
			p.port = port
			p.state = Running
			p.mu.Unlock()
			p.log.Info("reconnected", "attempt", attempt)
			return true
		}

		p.log.Warn("reconnect failed", "attempt", attempt, "err", err)
		if attempt >= p.cfg.MaxReconnectRetries {
			p.fail(fmt.Errorf("giving up after %d reconnect attempts: %w", attempt, err))
			return false
		}

		delay *= 2
		if delay > p.cfg.ReconnectBackoffMax {
			delay = p.cfg.ReconnectBackoffMax
		}
	}
}

func (p *SerialProducer) fail(reason error) {
	p.mu.Lock()
	p.state = Failed
	p.failErr = reason
	p.mu.Unlock()
	p.log.Error("serial producer failed", "err", reason)
}
