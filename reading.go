package biogas

import "time"

// Device state words as reported by the instrument firmware.
const (
	StateMeasurement = 0
	StateError       = 1
	StateNormal      = 2
)

// Physical valid ranges. Every Reading produced by this package is
// clamped to these bounds regardless of source.
const (
	MinTempDegC = -40.0
	MaxTempDegC = 150.0

	MinHumidityPercRH = 0.0
	MaxHumidityPercRH = 100.0

	MinFlow = 0.0
	MaxFlow = 1000.0

	MinConcentrationCH4 = 0.0
	MaxConcentrationCH4 = 100.0

	MinPressureKPa = 0.0
	MaxPressureKPa = 500.0
)

// Reading is a single timestamped sensor sample. The schema is identical
// for simulated and serial-acquired data, so consumers never need to know
// where a Reading came from.
type Reading struct {
	Timestamp        time.Time          `json:"timestamp"`
	State            int                `json:"state"`
	TempDegC         float64            `json:"temp_degC"`
	HumidityPercRH   float64            `json:"humidity_perc_rH"`
	Flow             float64            `json:"flow"`
	ConcentrationCH4 float64            `json:"concentration_ch4"`
	Pressure         float64            `json:"pressure"`
	Thermistors      map[string]float64 `json:"thermistors,omitempty"`
}

// Clamp bounds every numeric field to its physical valid range and
// returns the result. Thermistor channels are bounded like temperatures.
// The receiver is left untouched: clamped thermistors land in a fresh map.
func (r Reading) Clamp() Reading {
	r.TempDegC = clamp(r.TempDegC, MinTempDegC, MaxTempDegC)
	r.HumidityPercRH = clamp(r.HumidityPercRH, MinHumidityPercRH, MaxHumidityPercRH)
	r.Flow = clamp(r.Flow, MinFlow, MaxFlow)
	r.ConcentrationCH4 = clamp(r.ConcentrationCH4, MinConcentrationCH4, MaxConcentrationCH4)
	r.Pressure = clamp(r.Pressure, MinPressureKPa, MaxPressureKPa)
	if r.Thermistors != nil {
		th := make(map[string]float64, len(r.Thermistors))
		for id, v := range r.Thermistors {
			th[id] = clamp(v, MinTempDegC, MaxTempDegC)
		}
		r.Thermistors = th
	}
	return r
}

// clone returns a copy sharing no mutable state with r.
func (r Reading) clone() Reading {
	if r.Thermistors != nil {
		th := make(map[string]float64, len(r.Thermistors))
		for id, v := range r.Thermistors {
			th[id] = v
		}
		r.Thermistors = th
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
