package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rohankatakam/histblame/internal/models"
)

var teamifiedHeader = []string{
	"team", "total_ownership", "files_modified", "author_name",
	"author_email", "adds", "dels", "both",
}

func teamifiedRow(a models.TeamedAuthor) []string {
	return []string{
		a.TeamLabel(),
		a.TotalOwnership.String(),
		strconv.Itoa(len(a.Filepaths)),
		a.AuthorName,
		a.AuthorEmail,
		strconv.Itoa(a.Adds),
		strconv.Itoa(a.Dels),
		strconv.Itoa(a.Both),
	}
}

// WriteTeamifiedCSV writes one row per author with its team
func WriteTeamifiedCSV(w io.Writer, authors []models.TeamedAuthor) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(teamifiedHeader); err != nil {
		return err
	}
	for _, a := range authors {
		if err := cw.Write(teamifiedRow(a)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteByTeamCSV writes the author rows grouped team by team
func WriteByTeamCSV(w io.Writer, groups []models.TeamGroup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(teamifiedHeader); err != nil {
		return err
	}
	for _, g := range groups {
		for _, a := range g.Teammates {
			if err := cw.Write(teamifiedRow(a)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTeamStatsCSV writes the team-level summary
func WriteTeamStatsCSV(w io.Writer, stats []models.TeamStat) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"team", "total_ownership_aggregate"}); err != nil {
		return err
	}
	for _, s := range stats {
		if err := cw.Write([]string{s.Team, s.TotalOwnershipAggregate.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
