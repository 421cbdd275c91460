package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rohankatakam/histblame/internal/models"
)

// Formats accepted by OwnershipFormatter
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// ValidFormat reports whether format is supported
func ValidFormat(format string) bool {
	return format == FormatTable || format == FormatJSON || format == FormatCSV
}

// OwnershipFormatter renders author and team summaries for the terminal
type OwnershipFormatter struct {
	format string // "table", "json", "csv"
	limit  int    // 0 means all rows
}

// NewOwnershipFormatter creates a formatter. limit caps the number of
// author rows in table output.
func NewOwnershipFormatter(format string, limit int) *OwnershipFormatter {
	return &OwnershipFormatter{format: format, limit: limit}
}

// FormatAuthors renders the grouped author summary
func (f *OwnershipFormatter) FormatAuthors(w io.Writer, groups []models.AuthorGroup, totals models.Totals) error {
	switch f.format {
	case FormatJSON:
		return writeJSON(w, groups)
	case FormatCSV:
		return f.authorsCSV(w, groups)
	default:
		return f.authorsTable(w, groups, totals)
	}
}

// FormatTeams renders the team-level summary
func (f *OwnershipFormatter) FormatTeams(w io.Writer, stats []models.TeamStat) error {
	switch f.format {
	case FormatJSON:
		return writeJSON(w, stats)
	case FormatCSV:
		return WriteTeamStatsCSV(w, stats)
	default:
		return f.teamsTable(w, stats)
	}
}

func (f *OwnershipFormatter) authorsTable(w io.Writer, groups []models.AuthorGroup, totals models.Totals) error {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No changed lines found")
		return nil
	}

	tw := newTable(w)
	tw.AppendHeader(table.Row{"#", "Author", "Email", "+Adds", "-Dels", "±Both", "Ownership %", "Files"})

	shown := groups
	if f.limit > 0 && len(shown) > f.limit {
		shown = shown[:f.limit]
	}

	for i, g := range shown {
		tw.AppendRow(table.Row{
			i + 1,
			g.AuthorName,
			g.AuthorEmail,
			humanize.Comma(int64(g.Adds)),
			humanize.Comma(int64(g.Dels)),
			humanize.Comma(int64(g.Both)),
			g.TotalOwnership.String(),
			len(g.Filepaths),
		})
	}

	tw.AppendFooter(table.Row{
		"", fmt.Sprintf("%d authors", len(groups)), "",
		humanize.Comma(int64(totals.TotalAdded)),
		humanize.Comma(int64(totals.TotalDeleted)),
		humanize.Comma(int64(totals.TotalChanged)),
		"", "",
	})
	tw.Render()

	if len(shown) < len(groups) {
		fmt.Fprintf(w, "... %d more authors\n", len(groups)-len(shown))
	}
	return nil
}

func (f *OwnershipFormatter) authorsCSV(w io.Writer, groups []models.AuthorGroup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"author_name", "author_email", "adds", "dels", "both", "total_ownership", "files_modified"}); err != nil {
		return err
	}
	for _, g := range groups {
		row := []string{
			g.AuthorName,
			g.AuthorEmail,
			strconv.Itoa(g.Adds),
			strconv.Itoa(g.Dels),
			strconv.Itoa(g.Both),
			g.TotalOwnership.String(),
			strconv.Itoa(len(g.Filepaths)),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (f *OwnershipFormatter) teamsTable(w io.Writer, stats []models.TeamStat) error {
	if len(stats) == 0 {
		fmt.Fprintln(w, "No teams found")
		return nil
	}

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Team", "Ownership %"})
	for _, s := range stats {
		tw.AppendRow(table.Row{s.Team, s.TotalOwnershipAggregate.String()})
	}
	tw.Render()
	return nil
}

// newTable returns a light-style table writer that prints footers as given
func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Footer = text.FormatDefault
	return tw
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
