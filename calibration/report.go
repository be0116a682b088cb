package calibration

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/CK6170/Torquecal-go/models"
)

var titleCaser = cases.Title(language.English)

// Title returns the direction name as a heading, e.g. "Ascending".
func Title(d models.Direction) string {
	return titleCaser.String(string(d))
}

// PrintTable renders a processed sweep table.
func PrintTable(w io.Writer, title string, t models.Table) {
	fmt.Fprintf(w, "\n%s:\n\n", title)
	table := tablewriter.NewWriter(w)
	table.SetHeader(t.Header)
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(t.Rows)
	table.Render()
}

// PrintRegression renders the coefficients and diagnostics of a fit.
func PrintRegression(w io.Writer, title string, r models.RegressionResult) {
	fmt.Fprintf(w, "\n%s:\n\n", title)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"slope", "intercept", "r_value", "p_value", "std_err", "n", "units"})
	table.SetAutoFormatHeaders(false)
	table.Append([]string{
		formatG(r.Slope),
		formatG(r.Intercept),
		formatG(r.RValue),
		formatOptional(r.PValue),
		formatOptional(r.StdErr),
		strconv.Itoa(r.N),
		r.Units,
	})
	table.Render()
}

func formatG(v float64) string {
	return strconv.FormatFloat(v, 'g', 8, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return formatG(*v)
}
