package biogas

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseLine_RequiredFields(t *testing.T) {
	r, err := ParseLine("2,25.31,64.80,10.12,60.5,101.32", DefaultChannels)
	require.NoError(t, err)

	require.Equal(t, StateNormal, r.State)
	require.InDelta(t, 25.31, r.TempDegC, 1e-9)
	require.InDelta(t, 64.80, r.HumidityPercRH, 1e-9)
	require.InDelta(t, 10.12, r.Flow, 1e-9)
	require.InDelta(t, 60.5, r.ConcentrationCH4, 1e-9)
	require.InDelta(t, 101.32, r.Pressure, 1e-9)
	require.Empty(t, r.Thermistors)
	require.True(t, r.Timestamp.IsZero(), "caller stamps on receipt")
}

func TestParseLine_ThermistorsByPosition(t *testing.T) {
	r, err := ParseLine("2,25.0,65.0,10.0,60.0,101.3,30.1,40.2", DefaultChannels)
	require.NoError(t, err)
	require.InDelta(t, 30.1, r.Thermistors[ChannelFlowThermistor], 1e-9)
	require.InDelta(t, 40.2, r.Thermistors[ChannelCompThermistor], 1e-9)
}

func TestParseLine_Rejects(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"one field short", "2,25.0,65.0,10.0,60.0"},
		{"empty", ""},
		{"non-numeric field", "2,25.0,sixty,10.0,60.0,101.3"},
		{"too many thermistors", "2,25.0,65.0,10.0,60.0,101.3,30.0,40.0,50.0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLine(tc.line, DefaultChannels)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
		})
	}
}

func TestClamp_LeavesReceiverMapUntouched(t *testing.T) {
	in := Reading{
		TempDegC:    25,
		Thermistors: map[string]float64{ChannelCompThermistor: 500},
	}
	out := in.Clamp()
	require.Equal(t, MaxTempDegC, out.Thermistors[ChannelCompThermistor])
	require.Equal(t, 500.0, in.Thermistors[ChannelCompThermistor])
}

func TestParseLine_ClampsOutOfRange(t *testing.T) {
	r, err := ParseLine("2,25.0,65.0,10.0,140.0,101.3", DefaultChannels)
	require.NoError(t, err)
	require.Equal(t, MaxConcentrationCH4, r.ConcentrationCH4)
}

func TestFormatLine_RoundTrip(t *testing.T) {
	in := Reading{
		State:            StateNormal,
		TempDegC:         25.31,
		HumidityPercRH:   64.8,
		Flow:             10.12,
		ConcentrationCH4: 60.5,
		Pressure:         101.32,
		Thermistors: map[string]float64{
			ChannelFlowThermistor: 30.11,
			ChannelCompThermistor: 40.22,
		},
	}

	line := FormatLine(in, DefaultChannels)
	require.Equal(t, "2,25.31,64.80,10.12,60.50,101.32,30.11,40.22", line)

	out, err := ParseLine(line, DefaultChannels)
	require.NoError(t, err)
	require.Equal(t, in.State, out.State)
	require.InDelta(t, in.Flow, out.Flow, 0.01)
	require.InDelta(t, in.Thermistors[ChannelCompThermistor],
		out.Thermistors[ChannelCompThermistor], 0.01)
}

func TestFormatLine_SimulatedOutputParses(t *testing.T) {
	m := NewModel(ModelConfig{Seed: 11})
	for i := 1; i <= 50; i++ {
		line := FormatLine(m.Next(time.Duration(i)*time.Second), DefaultChannels)
		_, err := ParseLine(line, DefaultChannels)
		require.NoError(t, err, "line %q", line)
	}
}
