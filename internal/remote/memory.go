package remote

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/liftlog/internal/exercise"
)

// Memory is an in-process remote store for offline use and tests. It keeps
// the same uniqueness rules as the Postgres tables.
type Memory struct {
	session Session

	mu          sync.RWMutex
	exercises   map[string]Exercise            // keyed by lower-cased name
	libraries   map[string]map[string]struct{} // account -> exercise ids
	workouts    []Workout
	bodyWeights map[string]BodyWeight // keyed by account and date
}

func NewMemory(session Session) *Memory {
	return &Memory{
		session:     session,
		exercises:   make(map[string]Exercise),
		libraries:   make(map[string]map[string]struct{}),
		bodyWeights: make(map[string]BodyWeight),
	}
}

func (m *Memory) CurrentAccountID(ctx context.Context) (string, bool) {
	return m.session.AccountID(ctx)
}

func (m *Memory) EnsureExerciseInLibrary(ctx context.Context, name string) error {
	accountID, err := accountOrErr(ctx, m.session)
	if err != nil {
		return err
	}
	name, err = exercise.ValidateName(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(name)
	ex, ok := m.exercises[key]
	if !ok {
		ex = Exercise{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
		m.exercises[key] = ex
	}
	lib, ok := m.libraries[accountID]
	if !ok {
		lib = make(map[string]struct{})
		m.libraries[accountID] = lib
	}
	lib[ex.ID] = struct{}{}
	return nil
}

func (m *Memory) CreateWorkout(ctx context.Context, exerciseName string, reps int, weight float64, date string) (*Workout, error) {
	accountID, err := accountOrErr(ctx, m.session)
	if err != nil {
		return nil, err
	}
	w, err := newWorkout(accountID, exerciseName, reps, weight, date)
	if err != nil {
		return nil, err
	}
	w.ID = uuid.NewString()
	w.CreatedAt = time.Now().UTC()

	m.mu.Lock()
	m.workouts = append(m.workouts, *w)
	m.mu.Unlock()
	return w, nil
}

func (m *Memory) UpsertBodyWeight(ctx context.Context, weight float64, date string) (*BodyWeight, error) {
	accountID, err := accountOrErr(ctx, m.session)
	if err != nil {
		return nil, err
	}
	bw, err := newBodyWeight(accountID, weight, date)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := accountID + "|" + bw.Date.Format(exercise.DateLayout)
	if prev, ok := m.bodyWeights[key]; ok {
		bw.ID = prev.ID
		bw.CreatedAt = prev.CreatedAt
	} else {
		bw.ID = uuid.NewString()
		bw.CreatedAt = time.Now().UTC()
	}
	m.bodyWeights[key] = *bw
	return bw, nil
}

// Library returns the account's exercise names, sorted.
func (m *Memory) Library(accountID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for _, ex := range m.exercises {
		if _, ok := m.libraries[accountID][ex.ID]; ok {
			names = append(names, ex.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Workouts returns the account's workouts in insertion order.
func (m *Memory) Workouts(accountID string) []Workout {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Workout
	for _, w := range m.workouts {
		if w.AccountID == accountID {
			out = append(out, w)
		}
	}
	return out
}

// BodyWeights returns the account's entries ordered by date.
func (m *Memory) BodyWeights(accountID string) []BodyWeight {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []BodyWeight
	for _, bw := range m.bodyWeights {
		if bw.AccountID == accountID {
			out = append(out, bw)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// LibraryNames lists the current account's exercise names, sorted.
func (m *Memory) LibraryNames(ctx context.Context) ([]string, error) {
	accountID, err := accountOrErr(ctx, m.session)
	if err != nil {
		return nil, err
	}
	return m.Library(accountID), nil
}

// CountRows returns how many workouts and body weights the account owns.
func (m *Memory) CountRows(ctx context.Context) (workouts, bodyWeights int, err error) {
	accountID, err := accountOrErr(ctx, m.session)
	if err != nil {
		return 0, 0, err
	}
	return len(m.Workouts(accountID)), len(m.BodyWeights(accountID)), nil
}

func newWorkout(accountID, exerciseName string, reps int, weight float64, date string) (*Workout, error) {
	name, err := exercise.ValidateName(exerciseName)
	if err != nil {
		return nil, err
	}
	if err := exercise.ValidateWorkout(reps, weight); err != nil {
		return nil, err
	}
	d, err := exercise.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return &Workout{AccountID: accountID, ExerciseName: name, Reps: reps, Weight: weight, Date: d}, nil
}

func newBodyWeight(accountID string, weight float64, date string) (*BodyWeight, error) {
	if err := exercise.ValidateBodyWeight(weight); err != nil {
		return nil, err
	}
	d, err := exercise.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return &BodyWeight{AccountID: accountID, Weight: weight, Date: d}, nil
}

func (m *Memory) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("memory(exercises=%d workouts=%d bodyWeights=%d)", len(m.exercises), len(m.workouts), len(m.bodyWeights))
}
