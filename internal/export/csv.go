package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"pointage/internal/presence"
)

// header is the fixed 8-column export layout.
var header = []string{"Matricule", "Nom", "Prénom", "Département", "Métier", "Date", "Heure", "Statut"}

// WriteCSV renders the rows with the fixed header.
func WriteCSV(w io.Writer, records []presence.Presence) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, p := range records {
		if err := cw.Write(row(p)); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(p presence.Presence) []string {
	return []string{p.Matricule, p.Nom, p.Prenom, p.Departement, p.Metier, p.Date, p.Heure, string(p.Statut)}
}
