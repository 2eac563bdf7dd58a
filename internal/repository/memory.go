package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryUsers is a UserRepository kept in process memory. Used by tests and STORE=memory.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[primitive.ObjectID]models.User)}
}

func (r *MemoryUsers) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateEmail
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.match(func(u *models.User) bool { return u.Email == email })
}

func (r *MemoryUsers) GetByVerificationToken(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.match(func(u *models.User) bool { return u.VerificationToken == token })
}

func (r *MemoryUsers) Update(_ context.Context, id primitive.ObjectID, f UserFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	if f.DisplayName != nil {
		u.DisplayName = *f.DisplayName
	}
	if f.PhotoURL != nil {
		u.PhotoURL = *f.PhotoURL
	}
	if f.EmailVerified != nil {
		u.EmailVerified = *f.EmailVerified
	}
	if f.VerificationToken != nil {
		u.VerificationToken = *f.VerificationToken
	}
	if f.VerificationExpiresAt != nil {
		u.VerificationExpiresAt = *f.VerificationExpiresAt
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}

func (r *MemoryUsers) match(pred func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if pred(&u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// MemoryMeasurements is a MeasurementRepository kept in process memory.
type MemoryMeasurements struct {
	mu   sync.RWMutex
	seq  int64
	rows map[primitive.ObjectID]memRow
}

type memRow struct {
	seq int64
	m   models.Measurement
}

func NewMemoryMeasurements() *MemoryMeasurements {
	return &MemoryMeasurements{rows: make(map[primitive.ObjectID]memRow)}
}

func (r *MemoryMeasurements) Create(_ context.Context, m *models.Measurement) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	r.seq++
	r.rows[m.ID] = memRow{seq: r.seq, m: *m}
	return m.ID, nil
}

func (r *MemoryMeasurements) GetByID(_ context.Context, id primitive.ObjectID) (*models.Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	m := row.m
	return &m, nil
}

func (r *MemoryMeasurements) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Measurement, error) {
	return r.list(func(m *models.Measurement) bool { return m.UserID == userID }), nil
}

func (r *MemoryMeasurements) ListAll(_ context.Context) ([]models.Measurement, error) {
	return r.list(func(*models.Measurement) bool { return true }), nil
}

func (r *MemoryMeasurements) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *MemoryMeasurements) list(pred func(*models.Measurement) bool) []models.Measurement {
	r.mu.RLock()
	rows := make([]memRow, 0, len(r.rows))
	for _, row := range r.rows {
		if pred(&row.m) {
			rows = append(rows, row)
		}
	}
	r.mu.RUnlock()

	// Newest first; insertion order breaks ties between equal timestamps.
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].m.CreatedAt.Equal(rows[j].m.CreatedAt) {
			return rows[i].m.CreatedAt.After(rows[j].m.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})

	out := make([]models.Measurement, len(rows))
	for i, row := range rows {
		out[i] = row.m
	}
	return out
}
