// Package memory keeps users, funnels, workers and licenses in process.
// Every mutation runs under one mutex, so Enroll and Settle are as atomic
// here as the Postgres transactions are.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

type Store struct {
	mu       sync.Mutex
	users    map[string]*entity.User
	funnels  map[string]*entity.Funnel
	workers  map[string]*entity.Worker
	licenses map[string]*entity.License
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]*entity.User),
		funnels:  make(map[string]*entity.Funnel),
		workers:  make(map[string]*entity.Worker),
		licenses: make(map[string]*entity.License),
	}
}

// Seed is the on-disk shape read by LoadSeed.
type Seed struct {
	Users   []entity.User   `json:"users"`
	Funnels []entity.Funnel `json:"funnels"`
}

// LoadSeed fills the store from a JSON file with users and funnels.
func (s *Store) LoadSeed(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("erro ao ler seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("erro ao decodificar seed: %w", err)
	}
	for i := range seed.Users {
		s.AddUser(&seed.Users[i])
	}
	for i := range seed.Funnels {
		s.AddFunnel(&seed.Funnels[i])
	}
	return nil
}

func (s *Store) AddUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func (s *Store) AddFunnel(f *entity.Funnel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funnels[f.ID] = cloneFunnel(f)
}

func (s *Store) Funnels() *FunnelRepository   { return &FunnelRepository{s: s} }
func (s *Store) Workers() *WorkerRepository   { return &WorkerRepository{s: s} }
func (s *Store) Users() *UserRepository       { return &UserRepository{s: s} }
func (s *Store) Licenses() *LicenseRepository { return &LicenseRepository{s: s} }

func (s *Store) Ping(ctx context.Context) error { return nil }

// deleteWorkers must be called with s.mu held.
func (s *Store) deleteWorkers(match func(*entity.Worker) bool) int64 {
	var n int64
	for id, w := range s.workers {
		if match(w) {
			delete(s.workers, id)
			n++
		}
	}
	return n
}

// cancelWorkers must be called with s.mu held.
func (s *Store) cancelWorkers(funnelID, phone string, scope entity.CancelScope) int64 {
	return s.deleteWorkers(func(w *entity.Worker) bool {
		if w.Lead.Phone != phone {
			return false
		}
		return scope != entity.CancelByFunnel || w.FID == funnelID
	})
}

func cloneFunnel(f *entity.Funnel) *entity.Funnel {
	cp := *f
	cp.ActivatingEvents = slices.Clone(f.ActivatingEvents)
	cp.Shoots = slices.Clone(f.Shoots)
	cp.Leads = slices.Clone(f.Leads)
	return &cp
}

type FunnelRepository struct {
	s *Store
}

func (r *FunnelRepository) FindByID(ctx context.Context, id string) (*entity.Funnel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.funnels[id]
	if !ok {
		return nil, entity.ErrFunnelNotFound
	}
	return cloneFunnel(f), nil
}

// ListByUser returns the user's funnels, oldest first.
func (r *FunnelRepository) ListByUser(ctx context.Context, uid string) ([]*entity.Funnel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.Funnel{}
	for _, f := range r.s.funnels {
		if f.UID == uid {
			out = append(out, cloneFunnel(f))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *FunnelRepository) Create(ctx context.Context, f *entity.Funnel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.funnels[f.ID]; exists {
		return fmt.Errorf("funil %s já existe", f.ID)
	}
	r.s.funnels[f.ID] = cloneFunnel(f)
	return nil
}

// Update replaces the configuration and keeps leads, revenue and counters.
func (r *FunnelRepository) Update(ctx context.Context, f *entity.Funnel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.funnels[f.ID]
	if !ok || cur.UID != f.UID {
		return entity.ErrFunnelNotFound
	}
	next := cloneFunnel(f)
	next.Leads = cur.Leads
	next.Revenue = cur.Revenue
	next.Reaches = cur.Reaches
	next.Recovers = cur.Recovers
	next.CreatedAt = cur.CreatedAt
	r.s.funnels[f.ID] = next
	return nil
}

func (r *FunnelRepository) Delete(ctx context.Context, id string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.funnels[id]; !ok {
		return 0, entity.ErrFunnelNotFound
	}
	delete(r.s.funnels, id)
	return r.s.deleteWorkers(func(w *entity.Worker) bool { return w.FID == id }), nil
}

func (r *FunnelRepository) Enroll(ctx context.Context, funnelID, phone string, workers []*entity.Worker) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.funnels[funnelID]
	if !ok {
		return false, entity.ErrFunnelNotFound
	}
	if f.IsSuspended() || f.HasLead(phone) {
		return false, nil
	}
	f.Leads = append(f.Leads, phone)
	f.Reaches++
	for _, w := range workers {
		cp := *w
		r.s.workers[w.ID] = &cp
	}
	return true, nil
}

func (r *FunnelRepository) Settle(ctx context.Context, st entity.Settlement) (entity.SettleResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.funnels[st.FunnelID]
	if !ok {
		return entity.SettleResult{}, entity.ErrFunnelNotFound
	}
	i := slices.Index(f.Leads, st.Phone)
	if i < 0 {
		return entity.SettleResult{}, nil
	}
	f.Leads = slices.Delete(f.Leads, i, i+1)
	f.Revenue = f.Revenue.Add(st.Revenue)
	f.Recovers++

	cancelled := r.s.cancelWorkers(st.FunnelID, st.Phone, st.Scope)
	return entity.SettleResult{Settled: true, WorkersCancelled: cancelled}, nil
}

func (r *FunnelRepository) RemoveLead(ctx context.Context, funnelID, phone string, scope entity.CancelScope) (bool, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.funnels[funnelID]
	if !ok {
		return false, 0, entity.ErrFunnelNotFound
	}
	i := slices.Index(f.Leads, phone)
	if i < 0 {
		return false, 0, nil
	}
	f.Leads = slices.Delete(f.Leads, i, i+1)
	return true, r.s.cancelWorkers(funnelID, phone, scope), nil
}

type WorkerRepository struct {
	s *Store
}

func (r *WorkerRepository) DeleteByPhone(ctx context.Context, phone string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.deleteWorkers(func(w *entity.Worker) bool { return w.Lead.Phone == phone }), nil
}

func (r *WorkerRepository) DeleteByFunnelAndPhone(ctx context.Context, funnelID, phone string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.deleteWorkers(func(w *entity.Worker) bool {
		return w.FID == funnelID && w.Lead.Phone == phone
	}), nil
}

func (r *WorkerRepository) CountByPhone(ctx context.Context, phone string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, w := range r.s.workers {
		if w.Lead.Phone == phone {
			n++
		}
	}
	return n, nil
}

// ListByPhone returns the phone's workers ordered by PerformAt.
func (r *WorkerRepository) ListByPhone(ctx context.Context, phone string) ([]*entity.Worker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Worker
	for _, w := range r.s.workers {
		if w.Lead.Phone == phone {
			cp := *w
			out = append(out, &cp)
		}
	}
	sortByPerformAt(out)
	return out, nil
}

// ClaimDue hands due workers to fn in PerformAt order and deletes each one
// fn accepts. It stops at the first fn error.
func (r *WorkerRepository) ClaimDue(ctx context.Context, now time.Time, limit int, fn func(*entity.Worker) error) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var due []*entity.Worker
	for _, w := range r.s.workers {
		if !w.PerformAt.After(now) {
			due = append(due, w)
		}
	}
	sortByPerformAt(due)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	claimed := 0
	for _, w := range due {
		if err := ctx.Err(); err != nil {
			return claimed, err
		}
		cp := *w
		if err := fn(&cp); err != nil {
			return claimed, err
		}
		delete(r.s.workers, w.ID)
		claimed++
	}
	return claimed, nil
}

func sortByPerformAt(ws []*entity.Worker) {
	sort.SliceStable(ws, func(i, j int) bool {
		if ws[i].PerformAt.Equal(ws[j].PerformAt) {
			return ws[i].Shoot.Index < ws[j].Shoot.Index
		}
		return ws[i].PerformAt.Before(ws[j].PerformAt)
	})
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, entity.ErrUserNotFound
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.ID == u.ID || strings.EqualFold(existing.Email, u.Email) {
			return entity.ErrUserAlreadyExists
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

type LicenseRepository struct {
	s *Store
}

func (r *LicenseRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.licenses {
		if strings.EqualFold(l.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *LicenseRepository) Create(ctx context.Context, l *entity.License) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.licenses {
		if strings.EqualFold(existing.Email, l.Email) {
			return entity.ErrLicenseAlreadyExists
		}
	}
	cp := *l
	r.s.licenses[l.ID] = &cp
	return nil
}
