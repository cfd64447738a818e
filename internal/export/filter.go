// Package export filters presence rows and renders them as CSV or XLSX.
package export

import (
	"strings"

	"pointage/internal/presence"
)

// All matches every value of a filter dimension.
const All = "Tous"

// Filter selects presence rows for display and export.
type Filter struct {
	Query       string // substring match over nom, prenom, matricule
	Date        string // exact date, empty matches all
	Departement string // exact department or All
	Statut      string // exact statut or All
}

// Apply returns the rows matching every set dimension.
func (f Filter) Apply(records []presence.Presence) []presence.Presence {
	query := strings.ToLower(f.Query)
	var out []presence.Presence
	for _, p := range records {
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Nom), query) &&
			!strings.Contains(strings.ToLower(p.Prenom), query) &&
			!strings.Contains(strings.ToLower(p.Matricule), query) {
			continue
		}
		if f.Date != "" && p.Date != f.Date {
			continue
		}
		if f.Departement != "" && f.Departement != All && p.Departement != f.Departement {
			continue
		}
		if f.Statut != "" && f.Statut != All && string(p.Statut) != f.Statut {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Departements lists the distinct departments present in records, with the
// All sentinel first.
func Departements(records []presence.Presence) []string {
	seen := make(map[string]bool)
	out := []string{All}
	for _, p := range records {
		if p.Departement != "" && !seen[p.Departement] {
			seen[p.Departement] = true
			out = append(out, p.Departement)
		}
	}
	return out
}
