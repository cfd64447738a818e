package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pointage/internal/presence"
)

func sampleRecords() []presence.Presence {
	created := time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC)
	return []presence.Presence{
		{
			Matricule: "EMP001", Nom: "Dupont", Prenom: "Jean",
			Departement: "Production", Metier: "Technicien",
			Date: "2025-01-15", Heure: "08:30:00", Statut: presence.StatutPresent,
			CreatedAt: created,
		},
		{
			Matricule: "EMP002", Nom: "Martin", Prenom: "Claire",
			Departement: "Logistique", Metier: "Cariste",
			Date: "2025-01-15", Heure: "09:05:12", Statut: presence.StatutRetard,
			CreatedAt: created.Add(time.Hour),
		},
		{
			Matricule: "EMP003", Nom: "Bernard", Prenom: "Luc",
			Departement: "Production", Metier: "Opérateur",
			Date: "2025-01-14", Heure: "08:01:44", Statut: presence.StatutAbsent,
			CreatedAt: created.AddDate(0, 0, -1),
		},
	}
}

func TestFilter(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name   string
		filter Filter
		want   []string // matricules
	}{
		{"empty matches all", Filter{}, []string{"EMP001", "EMP002", "EMP003"}},
		{"query on nom", Filter{Query: "dupont"}, []string{"EMP001"}},
		{"query on prenom", Filter{Query: "cLaIre"}, []string{"EMP002"}},
		{"query on matricule", Filter{Query: "emp003"}, []string{"EMP003"}},
		{"date", Filter{Date: "2025-01-14"}, []string{"EMP003"}},
		{"departement", Filter{Departement: "Production"}, []string{"EMP001", "EMP003"}},
		{"departement Tous", Filter{Departement: All}, []string{"EMP001", "EMP002", "EMP003"}},
		{"statut", Filter{Statut: "Retard"}, []string{"EMP002"}},
		{"combined", Filter{Date: "2025-01-15", Departement: "Production"}, []string{"EMP001"}},
		{"no match", Filter{Query: "ghost"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, p := range tt.filter.Apply(records) {
				got = append(got, p.Matricule)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDepartements(t *testing.T) {
	assert.Equal(t, []string{"Tous", "Production", "Logistique"}, Departements(sampleRecords()))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()[:1]))

	want := "Matricule,Nom,Prénom,Département,Métier,Date,Heure,Statut\n" +
		"EMP001,Dupont,Jean,Production,Technicien,2025-01-15,08:30:00,Présent\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_EmptyStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "Matricule,Nom,Prénom,Département,Métier,Date,Heure,Statut\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRecords()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Présences")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Matricule", "Nom", "Prénom", "Département", "Métier", "Date", "Heure", "Statut"}, rows[0])
	assert.Equal(t, "EMP002", rows[2][0])
	assert.Equal(t, "Retard", rows[2][7])
}
