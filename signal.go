package biogas

import (
	"math"
	"math/rand"
	"time"
)

// Default base values matching the calibration setup of the instrument.
const (
	DefaultBaseTemp          = 25.0    // °C
	DefaultBaseFlow          = 10.0    // L/min
	DefaultBasePressure      = 101.325 // kPa
	DefaultBaseConcentration = 60.0    // % CH4
	DefaultNoiseLevel        = 0.05
)

// Thermistor channel names and their offsets above ambient temperature.
const (
	ChannelFlowThermistor = "t_flow"
	ChannelCompThermistor = "t_comp"

	flowThermistorOffset = 5.0
	compThermistorOffset = 15.0
)

// ModelConfig configures a signal Model. Zero values select the
// documented defaults; a zero Seed derives one from the clock, a zero
// Epoch pins simulated timestamps to the construction time.
type ModelConfig struct {
	BaseTemp          float64
	BaseFlow          float64
	BasePressure      float64
	BaseConcentration float64
	NoiseLevel        float64
	Seed              int64
	Epoch             time.Time
}

func (c ModelConfig) withDefaults() ModelConfig {
	if c.BaseTemp == 0 {
		c.BaseTemp = DefaultBaseTemp
	}
	if c.BaseFlow == 0 {
		c.BaseFlow = DefaultBaseFlow
	}
	if c.BasePressure == 0 {
		c.BasePressure = DefaultBasePressure
	}
	if c.BaseConcentration == 0 {
		c.BaseConcentration = DefaultBaseConcentration
	}
	if c.NoiseLevel < 0 {
		c.NoiseLevel = 0
	} else if c.NoiseLevel == 0 {
		c.NoiseLevel = DefaultNoiseLevel
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	if c.Epoch.IsZero() {
		c.Epoch = time.Now()
	}
	return c
}

// Model generates plausible biogas sensor readings: slow sinusoidal
// variation per field, a random-walk drift shared between flow and
// pressure, and bounded gaussian noise on top. A Model with a fixed Seed
// and Epoch is fully deterministic for a given sequence of elapsed times.
//
// Model is not safe for concurrent use; each producer owns its own.
type Model struct {
	cfg   ModelConfig
	rng   *rand.Rand
	drift float64
}

// NewModel creates a signal model from cfg.
func NewModel(cfg ModelConfig) *Model {
	cfg = cfg.withDefaults()
	return &Model{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Next computes the Reading at the given elapsed time since the model's
// epoch. It is total: any elapsed value yields a Reading clamped to the
// physical ranges.
func (m *Model) Next(elapsed time.Duration) Reading {
	t := elapsed.Seconds()

	tempVar := sine(t, 15, 2.0)
	flowVar := sine(t, 5, 0.2)
	ch4Var := sine(t, 20, 5.0)

	// Flow and pressure share a slow random walk so that flow increases
	// loosely track pressure increases.
	m.drift += m.noise(1.0, 0.4)
	m.drift = clamp(m.drift, -1.0, 1.0)

	temp := m.cfg.BaseTemp + tempVar
	temp += m.noise(temp, 1.0)

	flow := m.cfg.BaseFlow * (1 + flowVar)
	flow += m.drift * 0.05 * m.cfg.BaseFlow
	flow += m.noise(flow, 1.0)

	pressure := m.cfg.BasePressure + m.drift*0.01*m.cfg.BasePressure
	pressure += m.noise(pressure, 0.01)

	ch4 := m.cfg.BaseConcentration + ch4Var
	ch4 += m.noise(ch4, 1.0)

	humidity := 65.0 + m.noise(65.0, 0.1)

	r := Reading{
		Timestamp:        m.cfg.Epoch.Add(elapsed),
		State:            StateNormal,
		TempDegC:         temp,
		HumidityPercRH:   humidity,
		Flow:             flow,
		ConcentrationCH4: ch4,
		Pressure:         pressure,
		Thermistors: map[string]float64{
			ChannelFlowThermistor: temp + flowThermistorOffset + m.noise(temp, 0.2),
			ChannelCompThermistor: temp + compThermistorOffset + m.noise(temp, 0.2),
		},
	}
	return r.Clamp()
}

// noise draws gaussian noise scaled to NoiseLevel, factor and the value's
// magnitude, truncated at three sigma so a single sample cannot spike.
func (m *Model) noise(value, factor float64) float64 {
	sigma := m.cfg.NoiseLevel * factor * math.Abs(value)
	return clamp(m.rng.NormFloat64(), -3, 3) * sigma
}

// sine is a slow variation with the given period in minutes.
func sine(t, periodMinutes, amplitude float64) float64 {
	return amplitude * math.Sin(2*math.Pi*t/(periodMinutes*60))
}
