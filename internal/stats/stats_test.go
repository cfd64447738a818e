package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pointage/internal/directory"
	"pointage/internal/presence"
)

func TestCompute(t *testing.T) {
	today := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	users := []directory.User{
		{Matricule: "ADMIN001", Departement: "RH", Role: directory.RoleAdmin},
		{Matricule: "EMP001", Departement: "Production", Role: directory.RoleEmployee},
		{Matricule: "EMP002", Departement: "Production", Role: directory.RoleEmployee},
		{Matricule: "EMP003", Departement: "Logistique", Role: directory.RoleEmployee},
	}
	records := []presence.Presence{
		{Matricule: "EMP001", Date: "2025-01-15", Statut: presence.StatutPresent},
		{Matricule: "EMP002", Date: "2025-01-15", Statut: presence.StatutRetard},
		{Matricule: "EMP001", Date: "2025-01-14", Statut: presence.StatutPresent},
		{Matricule: "EMP003", Date: "2025-01-14", Statut: presence.StatutAbsent},
	}

	ov := Compute(users, records, today)

	assert.Equal(t, 3, ov.TotalEmployees, "admin excluded")
	assert.Equal(t, 4, ov.TotalPresences)
	assert.Equal(t, 2, ov.PresentCount)
	assert.Equal(t, 1, ov.AbsentCount)
	assert.Equal(t, 1, ov.RetardCount)

	require.Len(t, ov.PresencesByDay, 7)
	assert.Equal(t, "2025-01-09", ov.PresencesByDay[0].Date, "oldest day first")
	last := ov.PresencesByDay[6]
	assert.Equal(t, "2025-01-15", last.Date)
	assert.Equal(t, 1, last.Present)
	assert.Equal(t, 3, last.Total)
	assert.Equal(t, 33, last.Percentage)

	prod := ov.DepartmentStats["Production"]
	assert.Equal(t, 2, prod.Employees)
	assert.Equal(t, 2, prod.Present, "both Présent records belong to EMP001")
	logi := ov.DepartmentStats["Logistique"]
	assert.Equal(t, 1, logi.Employees)
	assert.Equal(t, 0, logi.Present)
}

func TestCompute_Empty(t *testing.T) {
	ov := Compute(nil, nil, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.Zero(t, ov.TotalEmployees)
	require.Len(t, ov.PresencesByDay, 7)
	for _, day := range ov.PresencesByDay {
		assert.Zero(t, day.Percentage, "no employees means zero rate, not NaN")
	}
}
