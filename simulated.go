package biogas

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the simulated generation cadence when none is
// configured.
const DefaultInterval = time.Second

// SimulatedConfig configures a SimulatedProducer.
type SimulatedConfig struct {
	// Interval between generated readings, default DefaultInterval.
	Interval time.Duration
	// Model configures the signal generator.
	Model ModelConfig
	// Sinks observe every pushed Reading; errors are non-fatal.
	Sinks []Sink
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// SimulatedProducer drives a signal Model on a fixed cadence and pushes
// each Reading into the shared buffer. The loop schedules wake times
// instead of sleeping a fixed amount after each push, so cadence does not
// drift over long sessions.
type SimulatedProducer struct {
	cfg     SimulatedConfig
	buf     *Buffer
	log     *slog.Logger
	metrics *ProducerMetrics

	mu       sync.Mutex
	state    State
	done     chan struct{}
	loopDone chan struct{}
}

// NewSimulatedProducer creates an idle producer feeding buf.
func NewSimulatedProducer(buf *Buffer, cfg SimulatedConfig) *SimulatedProducer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &SimulatedProducer{
		cfg:     cfg,
		buf:     buf,
		log:     log.With("producer", "simulated"),
		metrics: NewProducerMetrics("simulated"),
	}
}

// Metrics exposes the producer's Prometheus instruments for registration.
func (p *SimulatedProducer) Metrics() *ProducerMetrics { return p.metrics }

// State reports the current lifecycle state.
func (p *SimulatedProducer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns nil; the simulated loop has no terminal failure mode.
func (p *SimulatedProducer) Err() error { return nil }

// Start spawns the generation loop. It returns ErrAlreadyRunning unless
// the producer is Idle or Stopped.
func (p *SimulatedProducer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Idle && p.state != Stopped {
		return ErrAlreadyRunning
	}
	p.state = Running
	p.done = make(chan struct{})
	p.loopDone = make(chan struct{})
	go p.loop(p.done, p.loopDone)
	p.log.Info("simulated producer started", "interval", p.cfg.Interval)
	return nil
}

// Stop requests termination and blocks until the loop has exited. No
// Reading is pushed after Stop returns.
func (p *SimulatedProducer) Stop() error {
	p.mu.Lock()
	if p.state != Running {
		p.mu.Unlock()
		return ErrNotRunning
	}
	p.state = Stopping
	close(p.done)
	loopDone := p.loopDone
	p.mu.Unlock()

	<-loopDone

	p.mu.Lock()
	p.state = Stopped
	p.mu.Unlock()
	p.log.Info("simulated producer stopped")
	return nil
}

func (p *SimulatedProducer) loop(done <-chan struct{}, loopDone chan<- struct{}) {
	defer close(loopDone)

	model := NewModel(p.cfg.Model)
	start := time.Now()
	next := start.Add(p.cfg.Interval)

	for {
		timer := time.NewTimer(time.Until(next))
		select {
		case <-done:
			timer.Stop()
			return
		case <-timer.C:
		}

		r := model.Next(time.Since(start))
		p.push(r)

		next = next.Add(p.cfg.Interval)
		if time.Until(next) < 0 {
			// Fell behind (suspend, heavy load); realign instead of
			// firing a burst of catch-up ticks.
			next = time.Now().Add(p.cfg.Interval)
		}
	}
}

// push hands a Reading to the buffer and sinks. An out-of-order stamp is
// a producer bug; it is logged and corrected with the wall clock.
func (p *SimulatedProducer) push(r Reading) {
	err := p.buf.Push(r)
	var ooo *OutOfOrderError
	if errors.As(err, &ooo) {
		p.log.Warn("out-of-order reading, re-stamping", "err", err)
		r.Timestamp = time.Now()
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

// Generate produces n Readings at a fixed simulated step without running
// the background loop, for offline analysis and tests.
func (p *SimulatedProducer) Generate(n int, step time.Duration) []Reading {
	model := NewModel(p.cfg.Model)
	out := make([]Reading, n)
	for i := range out {
		out[i] = model.Next(time.Duration(i+1) * step)
	}
	return out
}
