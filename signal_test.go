package biogas

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestModel_Deterministic(t *testing.T) {
	cfg := ModelConfig{Seed: 42, Epoch: time.Unix(0, 0)}
	a := NewModel(cfg)
	b := NewModel(cfg)

	for i := 0; i < 1000; i++ {
		elapsed := time.Duration(i) * 100 * time.Millisecond
		ra := a.Next(elapsed)
		rb := b.Next(elapsed)
		require.Equal(t, ra, rb, "sample %d diverged", i)
	}
}

func TestModel_DifferentSeedsDiverge(t *testing.T) {
	epoch := time.Unix(0, 0)
	a := NewModel(ModelConfig{Seed: 1, Epoch: epoch})
	b := NewModel(ModelConfig{Seed: 2, Epoch: epoch})

	ra := a.Next(time.Second)
	rb := b.Next(time.Second)
	require.NotEqual(t, ra.Flow, rb.Flow)
}

func TestModel_RangesUnderHeavyNoise(t *testing.T) {
	m := NewModel(ModelConfig{Seed: 7, NoiseLevel: 1.0, Epoch: time.Unix(0, 0)})

	for i := 0; i < 10000; i++ {
		r := m.Next(time.Duration(i) * time.Second)

		require.GreaterOrEqual(t, r.TempDegC, MinTempDegC)
		require.LessOrEqual(t, r.TempDegC, MaxTempDegC)
		require.GreaterOrEqual(t, r.HumidityPercRH, MinHumidityPercRH)
		require.LessOrEqual(t, r.HumidityPercRH, MaxHumidityPercRH)
		require.GreaterOrEqual(t, r.Flow, MinFlow)
		require.LessOrEqual(t, r.Flow, MaxFlow)
		require.GreaterOrEqual(t, r.ConcentrationCH4, MinConcentrationCH4)
		require.LessOrEqual(t, r.ConcentrationCH4, MaxConcentrationCH4)
		require.GreaterOrEqual(t, r.Pressure, MinPressureKPa)
		require.LessOrEqual(t, r.Pressure, MaxPressureKPa)
		for id, v := range r.Thermistors {
			require.GreaterOrEqual(t, v, MinTempDegC, "thermistor %s", id)
			require.LessOrEqual(t, v, MaxTempDegC, "thermistor %s", id)
		}
	}
}

func TestModel_TimestampsFollowElapsed(t *testing.T) {
	epoch := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewModel(ModelConfig{Seed: 3, Epoch: epoch})

	r := m.Next(90 * time.Second)
	require.Equal(t, epoch.Add(90*time.Second), r.Timestamp)
	require.Equal(t, StateNormal, r.State)
}

func TestModel_ThermistorChannels(t *testing.T) {
	m := NewModel(ModelConfig{Seed: 9, NoiseLevel: 0.001, Epoch: time.Unix(0, 0)})
	r := m.Next(time.Second)

	require.Contains(t, r.Thermistors, ChannelFlowThermistor)
	require.Contains(t, r.Thermistors, ChannelCompThermistor)
	// Compensation element runs hotter than the flow element.
	require.Greater(t, r.Thermistors[ChannelCompThermistor], r.Thermistors[ChannelFlowThermistor])
}
