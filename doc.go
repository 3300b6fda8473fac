// Package biogas implements a real-time sensor data pipeline for biogas
// flow instruments: a background producer (simulated or attached over a
// Linux serial port) feeds timestamped readings into a bounded shared
// buffer, from which any number of concurrent consumers pull consistent
// snapshots or wait for updates.
//
// The pipeline is built for live plotting and dashboard backends where
// data arrives at a steady cadence (typically 1-10 Hz) and only the most
// recent window matters. Rendering, HTTP serving and durable storage are
// deliberately left to the caller; pass-through sinks (newline-delimited
// JSON, CSV with flattened thermistor columns, MQTT telemetry) observe
// the stream without being on the critical path.
//
// Features:
//   - Deterministic signal simulator (seeded) with sinusoidal variation,
//     correlated flow/pressure drift and bounded gaussian noise
//   - Fixed-capacity ring buffer with FIFO eviction and strict timestamp
//     ordering, safe for one writer and many readers
//   - Blocking consumer waits without busy-polling, with timeout and
//     context cancellation
//   - Raw termios serial acquisition (Linux only) with read timeouts,
//     self-pipe killability and bounded exponential reconnect backoff
//   - Malformed serial lines are counted and dropped, never fatal
//   - Prometheus counters per producer, structured logging via log/slog
//
// Example usage:
//
//	buf := biogas.NewBuffer(500)
//	prod := biogas.NewSimulatedProducer(buf, biogas.SimulatedConfig{
//	    Interval: time.Second,
//	})
//	if err := prod.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer prod.Stop()
//
//	c := biogas.NewConsumer(buf)
//	for {
//	    readings, err := c.WaitForUpdate(ctx, 5*time.Second)
//	    if err != nil {
//	        break
//	    }
//	    for _, r := range readings {
//	        fmt.Printf("%s flow=%.2f ch4=%.1f%%\n",
//	            r.Timestamp.Format(time.RFC3339), r.Flow, r.ConcentrationCH4)
//	    }
//	}
//
// Serial acquisition does **not** support Windows.
package biogas
