package resolution

import (
	"github.com/rohankatakam/histblame/internal/models"
)

// MatchTeam resolves an author's team from the directory. The display name
// is tried against fullname first, then the email against email; the first
// directory entry that matches wins. Returns nil when nothing matches.
func MatchTeam(authorName, authorEmail string, directory []models.Teammate) *string {
	for _, t := range directory {
		if t.Fullname == authorName {
			team := t.Team
			return &team
		}
	}

	for _, t := range directory {
		if t.Email == authorEmail {
			team := t.Team
			return &team
		}
	}

	return nil
}

// Teamify annotates every author with a team and rolls ownership up per
// team. Teams appear in the order their first member appears in groups;
// unmatched authors are collected under the "null" label.
func Teamify(groups []models.AuthorGroup, directory []models.Teammate) *models.TeamReport {
	report := &models.TeamReport{
		Authors: make([]models.TeamedAuthor, 0, len(groups)),
	}

	index := make(map[string]int)
	for _, g := range groups {
		author := models.TeamedAuthor{
			AuthorName:     g.AuthorName,
			AuthorEmail:    g.AuthorEmail,
			Adds:           g.Adds,
			Dels:           g.Dels,
			Both:           g.Both,
			TotalOwnership: g.TotalOwnership,
			Team:           MatchTeam(g.AuthorName, g.AuthorEmail, directory),
			Filepaths:      g.Filepaths,
		}
		report.Authors = append(report.Authors, author)

		label := author.TeamLabel()
		i, exists := index[label]
		if !exists {
			i = len(report.ByTeam)
			index[label] = i
			report.ByTeam = append(report.ByTeam, models.TeamGroup{Team: label})
		}

		tg := &report.ByTeam[i]
		tg.TotalOwnershipAggregate += author.TotalOwnership
		tg.Teammates = append(tg.Teammates, author)
	}

	report.Stats = make([]models.TeamStat, 0, len(report.ByTeam))
	for _, tg := range report.ByTeam {
		report.Stats = append(report.Stats, models.TeamStat{
			Team:                    tg.Team,
			TotalOwnershipAggregate: tg.TotalOwnershipAggregate,
		})
	}

	return report
}
