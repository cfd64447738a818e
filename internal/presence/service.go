// Package presence owns the attendance records and the rotating daily token.
package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pointage/internal/errs"
	"pointage/internal/kvstore"
	"pointage/internal/metrics"
)

// Store keys for the persisted ledger state.
const (
	presencesKey = "presences"
	tokenKey     = "daily_token"
)

// Statut of an attendance record.
type Statut string

const (
	StatutPresent Statut = "Présent"
	StatutAbsent  Statut = "Absent"
	StatutRetard  Statut = "Retard"
)

// Valid reports whether s is one of the three known statuses.
func (s Statut) Valid() bool {
	return s == StatutPresent || s == StatutAbsent || s == StatutRetard
}

// Presence is one attendance record.
type Presence struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Matricule      string    `json:"matricule"`
	Nom            string    `json:"nom"`
	Prenom         string    `json:"prenom"`
	Departement    string    `json:"departement"`
	Metier         string    `json:"metier"`
	Date           string    `json:"date"`
	Heure          string    `json:"heure"`
	Token          string    `json:"token"`
	Statut         Statut    `json:"statut"`
	MarkedManually bool      `json:"markedManually"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MarkInput carries the identity fields for a self check-in.
type MarkInput struct {
	UserID      string
	Matricule   string
	Nom         string
	Prenom      string
	Departement string
	Metier      string
	Token       string
}

// Ledger owns the presence collection and the current daily token. Mutating
// operations and the rotation tick share one mutex so two near-simultaneous
// calls cannot both read then clobber the persisted collection, and every
// mutation persists before committing to memory.
type Ledger struct {
	store    kvstore.Store
	log      *zap.Logger
	met      *metrics.Set
	now      func() time.Time
	onRotate func(DailyToken)

	mu        sync.Mutex
	presences []Presence
	token     *DailyToken
}

// NewLedger constructs the presence ledger. Call Load before use.
func NewLedger(store kvstore.Store, log *zap.Logger, met *metrics.Set) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, log: log, met: met, now: time.Now}
}

// SetClock overrides the time source. Intended for tests.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// OnRotate registers a hook invoked with each newly generated daily token.
// The hook runs outside the ledger lock.
func (l *Ledger) OnRotate(fn func(DailyToken)) { l.onRotate = fn }

// Load reads the persisted presence collection and ensures a fresh daily token.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	raw, err := l.store.Get(ctx, presencesKey)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		l.presences = nil
	case err != nil:
		l.mu.Unlock()
		return fmt.Errorf("presence: load records: %w", err)
	default:
		var records []Presence
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			l.mu.Unlock()
			return fmt.Errorf("presence: decode records: %w", err)
		}
		l.presences = records
	}
	l.mu.Unlock()

	if err := l.Refresh(ctx); err != nil {
		return err
	}
	l.log.Info("presence ledger loaded", zap.Int("records", len(l.All())))
	return nil
}

// Refresh compares the current token's date to today and regenerates it on
// mismatch or absence. On first call it prefers the persisted token when
// that one is still fresh.
func (l *Ledger) Refresh(ctx context.Context) error {
	l.mu.Lock()
	today := DateString(l.now())

	if l.token == nil {
		if raw, err := l.store.Get(ctx, tokenKey); err == nil {
			var stored DailyToken
			if jerr := json.Unmarshal([]byte(raw), &stored); jerr == nil && stored.Date == today {
				l.token = &stored
				l.mu.Unlock()
				return nil
			}
		} else if !errors.Is(err, kvstore.ErrNotFound) {
			l.mu.Unlock()
			return fmt.Errorf("presence: load token: %w", err)
		}
	}

	if l.token != nil && l.token.Date == today {
		l.mu.Unlock()
		return nil
	}

	fresh := DailyToken{Date: today, Token: TokenForDate(today)}
	raw, err := json.Marshal(fresh)
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("presence: encode token: %w", err)
	}
	if err := l.store.Set(ctx, tokenKey, string(raw)); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("presence: persist token: %w", err)
	}
	l.token = &fresh
	l.mu.Unlock()

	l.met.IncRotation()
	l.log.Info("daily token rotated", zap.String("date", fresh.Date), zap.String("token", fresh.Token))
	if l.onRotate != nil {
		l.onRotate(fresh)
	}
	return nil
}

// RunRotation re-checks token freshness on a ticker until ctx is cancelled.
func (l *Ledger) RunRotation(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Refresh(ctx); err != nil {
				l.log.Warn("token refresh failed", zap.Error(err))
			}
		}
	}
}

// CurrentToken returns the current daily token, if one has been generated.
func (l *Ledger) CurrentToken() (DailyToken, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.token == nil {
		return DailyToken{}, false
	}
	return *l.token, true
}

// MarkPresence records a self check-in against the submitted token.
// Token validity is checked before the duplicate check, so a wrong token
// is always ErrInvalidToken regardless of prior state.
func (l *Ledger) MarkPresence(ctx context.Context, in MarkInput) (Presence, error) {
	matricule := normalizeMatricule(in.Matricule)
	if matricule == "" || in.Nom == "" || in.Prenom == "" {
		return Presence{}, fmt.Errorf("%w: matricule, nom and prenom are required", errs.ErrValidation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.token == nil || in.Token != l.token.Token {
		l.met.IncRejection("invalid_token")
		return Presence{}, errs.ErrInvalidToken
	}

	now := l.now()
	today := DateString(now)
	for _, p := range l.presences {
		if p.Matricule == matricule && p.Date == today && p.Token == in.Token {
			l.met.IncRejection("already_marked")
			return Presence{}, errs.ErrAlreadyMarked
		}
	}

	record := Presence{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		Matricule:   matricule,
		Nom:         in.Nom,
		Prenom:      in.Prenom,
		Departement: in.Departement,
		Metier:      in.Metier,
		Date:        today,
		Heure:       now.Format("15:04:05"),
		Token:       in.Token,
		Statut:      StatutPresent,
		CreatedAt:   now,
	}
	updated := append(append([]Presence(nil), l.presences...), record)
	if err := l.persist(ctx, updated); err != nil {
		return Presence{}, err
	}
	l.presences = updated

	l.met.IncCheckin()
	l.log.Info("presence marked", zap.String("matricule", matricule), zap.String("date", today))
	return record, nil
}

// MarkManualPresence upserts an administrative mark keyed on (matricule, date).
// An existing record keeps its heure, token and createdAt; only the statut
// changes and the manual flag is set.
func (l *Ledger) MarkManualPresence(ctx context.Context, matricule, nom, prenom, departement, metier, date string, statut Statut) (Presence, error) {
	matricule = normalizeMatricule(matricule)
	if matricule == "" || date == "" {
		return Presence{}, fmt.Errorf("%w: matricule and date are required", errs.ErrValidation)
	}
	if !statut.Valid() {
		return Presence{}, fmt.Errorf("%w: unknown statut %q", errs.ErrValidation, statut)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, p := range l.presences {
		if p.Matricule == matricule && p.Date == date {
			updated := append([]Presence(nil), l.presences...)
			updated[i].Statut = statut
			updated[i].MarkedManually = true
			if err := l.persist(ctx, updated); err != nil {
				return Presence{}, err
			}
			l.presences = updated
			l.met.IncManualMark()
			l.log.Info("manual mark updated", zap.String("matricule", matricule), zap.String("date", date), zap.String("statut", string(statut)))
			return updated[i], nil
		}
	}

	now := l.now()
	var tokenValue string
	if l.token != nil {
		tokenValue = l.token.Token
	}
	record := Presence{
		ID:             uuid.NewString(),
		Matricule:      matricule,
		Nom:            nom,
		Prenom:         prenom,
		Departement:    departement,
		Metier:         metier,
		Date:           date,
		Heure:          now.Format("15:04:05"),
		Token:          tokenValue,
		Statut:         statut,
		MarkedManually: true,
		CreatedAt:      now,
	}
	updated := append(append([]Presence(nil), l.presences...), record)
	if err := l.persist(ctx, updated); err != nil {
		return Presence{}, err
	}
	l.presences = updated
	l.met.IncManualMark()
	l.log.Info("manual mark inserted", zap.String("matricule", matricule), zap.String("date", date), zap.String("statut", string(statut)))
	return record, nil
}

// ByDate returns the records for an exact date.
func (l *Ledger) ByDate(date string) []Presence {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Presence
	for _, p := range l.presences {
		if p.Date == date {
			out = append(out, p)
		}
	}
	return out
}

// ByMatricule returns one employee's records, most recent first.
func (l *Ledger) ByMatricule(matricule string) []Presence {
	matricule = normalizeMatricule(matricule)
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Presence
	for _, p := range l.presences {
		if p.Matricule == matricule {
			out = append(out, p)
		}
	}
	sortByCreatedDesc(out)
	return out
}

// ByDepartement returns the records for a department.
func (l *Ledger) ByDepartement(departement string) []Presence {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Presence
	for _, p := range l.presences {
		if p.Departement == departement {
			out = append(out, p)
		}
	}
	return out
}

// All returns every record, most recent first.
func (l *Ledger) All() []Presence {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := append([]Presence(nil), l.presences...)
	sortByCreatedDesc(out)
	return out
}

func (l *Ledger) persist(ctx context.Context, records []Presence) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("presence: encode records: %w", err)
	}
	if err := l.store.Set(ctx, presencesKey, string(raw)); err != nil {
		return fmt.Errorf("presence: persist records: %w", err)
	}
	return nil
}

func sortByCreatedDesc(records []Presence) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

func normalizeMatricule(matricule string) string {
	return strings.ToUpper(strings.TrimSpace(matricule))
}
