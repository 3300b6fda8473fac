package biogas

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testReading(i int) Reading {
	return Reading{
		Timestamp:        time.Date(2025, 6, 1, 12, 0, i, 0, time.UTC),
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
}

func TestJSONSink_NewlineDelimited(t *testing.T) {
	var out bytes.Buffer
	s := NewJSONSink(&out)

	require.NoError(t, s.Write(testReading(1)))
	require.NoError(t, s.Write(testReading(2)))
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var decoded Reading
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	require.Equal(t, 25.31, decoded.TempDegC)
	require.Equal(t, 30.11, decoded.Thermistors[ChannelFlowThermistor])

	// Canonical wire names.
	require.Contains(t, lines[0], `"temp_degC"`)
	require.Contains(t, lines[0], `"humidity_perc_rH"`)
	require.Contains(t, lines[0], `"concentration_ch4"`)
}

func TestCSVSink_HeaderAndFlattenedThermistors(t *testing.T) {
	var out bytes.Buffer
	s := NewCSVSink(&out, DefaultChannels)

	require.NoError(t, s.Write(testReading(1)))
	require.NoError(t, s.Write(testReading(2)))
	require.NoError(t, s.Close())

	records, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 rows

	require.Equal(t, []string{
		"timestamp", "state", "temp_degC", "humidity_perc_rH",
		"flow", "concentration_ch4", "pressure",
		"thermistor_t_flow", "thermistor_t_comp",
	}, records[0])

	require.Equal(t, "25.31", records[1][2])
	require.Equal(t, "30.11", records[1][7])
	require.Equal(t, "40.22", records[1][8])

	_, err = time.Parse(csvTimeLayout, records[1][0])
	require.NoError(t, err)
}

func TestFileSinks(t *testing.T) {
	dir := t.TempDir()

	js, err := NewJSONFileSink(dir + "/readings.json")
	require.NoError(t, err)
	require.NoError(t, js.Write(testReading(1)))
	require.NoError(t, js.Close())

	cs, err := NewCSVFileSink(dir+"/readings.csv", DefaultChannels)
	require.NoError(t, err)
	require.NoError(t, cs.Write(testReading(1)))
	require.NoError(t, cs.Close())
}
