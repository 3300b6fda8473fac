package biogas

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

const csvTimeLayout = time.RFC3339

// Sink observes Readings as a producer pushes them. Sinks are
// pass-through: a Write error is counted and logged by the producer but
// never interrupts the acquisition loop.
type Sink interface {
	Write(Reading) error
	Close() error
}

// JSONSink writes one JSON object per Reading, newline-delimited.
type JSONSink struct {
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONSink writes newline-delimited JSON to w.
func NewJSONSink(w io.Writer) *JSONSink {
	s := &JSONSink{enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// NewJSONFileSink creates or truncates path and writes newline-delimited
// JSON to it.
func NewJSONFileSink(path string) (*JSONSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create json sink: %w", err)
	}
	return NewJSONSink(f), nil
}

func (s *JSONSink) Write(r Reading) error { return s.enc.Encode(r) }

func (s *JSONSink) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// CSVSink writes one row per Reading with a header on first write.
// Thermistor channels are flattened to thermistor_<id> columns; the
// channel set is fixed at construction so every row has the same shape.
type CSVSink struct {
	w        *csv.Writer
	closer   io.Closer
	channels []string
	started  bool
}

// NewCSVSink writes CSV to w, flattening the given thermistor channels.
func NewCSVSink(w io.Writer, channels []string) *CSVSink {
	s := &CSVSink{w: csv.NewWriter(w), channels: channels}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// NewCSVFileSink creates or truncates path and writes CSV to it.
func NewCSVFileSink(path string, channels []string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv sink: %w", err)
	}
	return NewCSVSink(f, channels), nil
}

func (s *CSVSink) Write(r Reading) error {
	if !s.started {
		header := []string{"timestamp", "state", "temp_degC", "humidity_perc_rH",
			"flow", "concentration_ch4", "pressure"}
		for _, ch := range s.channels {
			header = append(header, "thermistor_"+ch)
		}
		if err := s.w.Write(header); err != nil {
			return err
		}
		s.started = true
	}

	row := []string{
		r.Timestamp.Format(csvTimeLayout),
		fmt.Sprintf("%d", r.State),
		fmt.Sprintf("%.2f", r.TempDegC),
		fmt.Sprintf("%.2f", r.HumidityPercRH),
		fmt.Sprintf("%.2f", r.Flow),
		fmt.Sprintf("%.1f", r.ConcentrationCH4),
		fmt.Sprintf("%.2f", r.Pressure),
	}
	for _, ch := range s.channels {
		row = append(row, fmt.Sprintf("%.2f", r.Thermistors[ch]))
	}
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	if s.closer != nil {
		return s.closer.Close()
	}
	return s.w.Error()
}
