package biogas

import (
	"fmt"
	"strconv"
	"strings"
)

// Serial line convention. One Reading per line, comma-separated,
// terminated by LineDelimiter:
//
//	state,temp_degC,humidity_perc_rH,flow,concentration_ch4,pressure[,thermistor...]
//
// The six required fields come first; any remaining fields are thermistor
// values matched positionally against the configured channel list. Lines
// with fewer than six fields, more thermistor values than configured
// channels, or non-numeric fields are rejected.
const (
	LineDelimiter      = "\r\n"
	requiredLineFields = 6
)

// DefaultChannels is the thermistor channel order used by the instrument
// firmware and the simulator's serial output.
var DefaultChannels = []string{ChannelFlowThermistor, ChannelCompThermistor}

// ParseLine converts one serial line into a Reading. The returned Reading
// carries a zero Timestamp; the caller stamps it on receipt.
func ParseLine(line string, channels []string) (Reading, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) < requiredLineFields {
		return Reading{}, &ParseError{Line: line,
			Reason: fmt.Sprintf("got %d fields, want at least %d", len(parts), requiredLineFields)}
	}
	extra := len(parts) - requiredLineFields
	if extra > len(channels) {
		return Reading{}, &ParseError{Line: line,
			Reason: fmt.Sprintf("%d thermistor fields but only %d channels configured", extra, len(channels))}
	}

	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Reading{}, &ParseError{Line: line,
				Reason: fmt.Sprintf("field %d: %v", i, err)}
		}
		vals[i] = v
	}

	r := Reading{
		State:            int(vals[0]),
		TempDegC:         vals[1],
		HumidityPercRH:   vals[2],
		Flow:             vals[3],
		ConcentrationCH4: vals[4],
		Pressure:         vals[5],
	}
	if extra > 0 {
		r.Thermistors = make(map[string]float64, extra)
		for i := 0; i < extra; i++ {
			r.Thermistors[channels[i]] = vals[requiredLineFields+i]
		}
	}
	return r.Clamp(), nil
}

// FormatLine renders a Reading in the serial wire format, without the
// trailing delimiter. Thermistor values are emitted in channel order;
// channels missing from the Reading are skipped along with any later ones
// so the positional convention stays intact.
func FormatLine(r Reading, channels []string) string {
	fields := []string{
		strconv.Itoa(r.State),
		formatFloat(r.TempDegC),
		formatFloat(r.HumidityPercRH),
		formatFloat(r.Flow),
		formatFloat(r.ConcentrationCH4),
		formatFloat(r.Pressure),
	}
	for _, ch := range channels {
		v, ok := r.Thermistors[ch]
		if !ok {
			break
		}
		fields = append(fields, formatFloat(v))
	}
	return strings.Join(fields, ",")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
