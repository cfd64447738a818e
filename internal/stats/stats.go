// Package stats derives aggregate attendance figures from directory and
// ledger snapshots. All functions are pure.
package stats

import (
	"math"
	"time"

	"pointage/internal/directory"
	"pointage/internal/presence"
)

// DayRate is the presence rate for one calendar day.
type DayRate struct {
	Date       string
	Present    int
	Total      int
	Percentage int
}

// DeptStat aggregates one department.
type DeptStat struct {
	Employees int
	Present   int
}

// Overview is the admin statistics view.
type Overview struct {
	TotalEmployees  int
	TotalPresences  int
	PresentCount    int
	AbsentCount     int
	RetardCount     int
	PresencesByDay  []DayRate           // last seven days, oldest first
	DepartmentStats map[string]DeptStat // keyed by department name
}

// Compute builds the overview for the given snapshots. The seeded admin and
// any other non-employee users are excluded from the employee totals.
func Compute(users []directory.User, records []presence.Presence, today time.Time) Overview {
	var employees []directory.User
	for _, u := range users {
		if u.Role == directory.RoleEmployee {
			employees = append(employees, u)
		}
	}

	ov := Overview{
		TotalEmployees:  len(employees),
		TotalPresences:  len(records),
		DepartmentStats: make(map[string]DeptStat),
	}
	for _, p := range records {
		switch p.Statut {
		case presence.StatutPresent:
			ov.PresentCount++
		case presence.StatutAbsent:
			ov.AbsentCount++
		case presence.StatutRetard:
			ov.RetardCount++
		}
	}

	for i := 6; i >= 0; i-- {
		date := presence.DateString(today.AddDate(0, 0, -i))
		present := 0
		for _, p := range records {
			if p.Date == date && p.Statut == presence.StatutPresent {
				present++
			}
		}
		pct := 0
		if len(employees) > 0 {
			pct = int(math.Round(float64(present) / float64(len(employees)) * 100))
		}
		ov.PresencesByDay = append(ov.PresencesByDay, DayRate{
			Date:       date,
			Present:    present,
			Total:      len(employees),
			Percentage: pct,
		})
	}

	for _, u := range employees {
		st := ov.DepartmentStats[u.Departement]
		st.Employees++
		for _, p := range records {
			if p.Matricule == u.Matricule && p.Statut == presence.StatutPresent {
				st.Present++
			}
		}
		ov.DepartmentStats[u.Departement] = st
	}
	return ov
}
