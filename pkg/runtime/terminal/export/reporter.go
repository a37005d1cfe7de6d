package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/de-tools/test-atlas/pkg/models/domain"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	dateLayout = "2006-01-02"
)

var summaryTemplate = template.Must(template.New("summary").Parse(`
{{.Distinct}} distinct tests, {{.Total}} results
Period: {{.Start}} to {{.End}}
`))

// Reporter prints dashboard results to the console as tables.
type Reporter struct {
	writer io.Writer
	now    func() time.Time
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		now:    time.Now,
	}
}

func (r *Reporter) Dashboards(dashboards []domain.Dashboard) error {
	t := r.table("Name", "Title", "Filters")
	for _, d := range dashboards {
		t.Append([]string{d.Name, d.Title, strings.Join(d.Filters, ", ")})
	}
	t.Render()
	return nil
}

func (r *Reporter) Filters(filters []domain.FilterDescriptor) error {
	t := r.table("Filter", "Selected", "Options")
	for _, f := range filters {
		selected, options := f.Selected, strings.Join(f.Options, ", ")
		if f.FreeText {
			selected, options = f.Value, "(free text)"
		}
		t.Append([]string{f.Label, selected, options})
	}
	t.Render()
	return nil
}

func (r *Reporter) Summary(summary *domain.Summary) error {
	if err := summaryTemplate.Execute(r.writer, summary); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return r.fetched(summary.Meta)
}

func (r *Reporter) View(name string, res *domain.QueryResult) error {
	if _, err := fmt.Fprintf(r.writer, "\n=== %s ===\n", name); err != nil {
		return err
	}

	if res.Table.Len() == 0 {
		if _, err := fmt.Fprintln(r.writer, "no results"); err != nil {
			return err
		}
		return r.fetched(res.Meta)
	}

	t := r.table(res.Table.Columns...)
	for _, row := range res.Table.Rows {
		cells := make([]string, len(res.Table.Columns))
		for i, col := range res.Table.Columns {
			cells[i] = formatValue(row[col])
		}
		t.Append(cells)
	}
	t.Render()
	return r.fetched(res.Meta)
}

func (r *Reporter) Chart(panels [3]domain.ChartGeometry) error {
	t := r.table("Panel", "From", "To", "Y Start", "Y End", "Polygon", "Points")
	for _, p := range panels {
		yEnd := "auto"
		if p.YRange.End != nil {
			yEnd = formatFloat(*p.YRange.End)
		}
		for _, poly := range p.Polygons {
			t.Append([]string{
				p.Title,
				formatMillis(p.XRange.Start),
				formatMillis(p.XRange.End),
				formatFloat(p.YRange.Start),
				yEnd,
				poly.Name,
				humanize.Comma(int64(len(poly.X) / 2)),
			})
		}
	}
	t.Render()
	return nil
}

func (r *Reporter) table(header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(r.writer)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	return t
}

func (r *Reporter) fetched(meta domain.Metadata) error {
	ts := meta.Timestamp()
	if ts.IsZero() {
		return nil
	}
	_, err := fmt.Fprintf(r.writer, "fetched %s\n", humanize.RelTime(ts, r.now(), "ago", "from now"))
	return err
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return formatFloat(x)
	case time.Time:
		return x.Format(timeLayout)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return ""
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return humanize.Comma(int64(v))
	default:
		return humanize.FtoaWithDigits(v, 3)
	}
}

func formatMillis(ms float64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(int64(ms)).UTC().Format(dateLayout)
}
