package models

import "strconv"

// Table renders the sweep with one row per setpoint. Canonical columns carry
// the canonical unit, operator columns the operator's control unit.
func (s SweepResult) Table(c Config) Table {
	q := c.Quantity()
	canon := c.CanonicalUnit()
	op := string(c.Converter().OperatorUnit())
	t := Table{
		Name: string(s.Direction),
		Header: []string{
			"nominal_" + q + "_" + canon,
			"initial_force_" + op,
			"final_force_" + op,
			"mean_" + q + "_" + canon,
			"mean_volts_per_volt",
			"std_volts_per_volt",
			"samples",
		},
		Rows: make([][]string, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		t.Rows = append(t.Rows, []string{
			formatFloat(r.Nominal),
			formatFloat(r.Initial),
			formatFloat(r.Final),
			formatFloat(r.Applied),
			formatFloat(r.MeanSignal),
			formatFloat(r.StdSignal),
			strconv.Itoa(r.Samples),
		})
	}
	return t
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
