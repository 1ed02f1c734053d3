package services

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/winter-backend/internal/models"
	"github.com/AnshRaj112/winter-backend/internal/repository"
)

// In-memory repository fakes. Create is an upsert keyed by _id, mirroring the
// Mongo implementations, so idempotency tests exercise the same semantics.

type fakeAuthRepo struct {
	mu        sync.Mutex
	records   map[primitive.ObjectID]*models.AuthUser
	failAll   bool
	createErr error
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{records: make(map[primitive.ObjectID]*models.AuthUser)}
}

func (f *fakeAuthRepo) Create(ctx context.Context, auth *models.AuthUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("store is down")
	}
	if f.createErr != nil {
		return f.createErr
	}
	clone := *auth
	f.records[auth.ID] = &clone
	return nil
}

func (f *fakeAuthRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.AuthUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errors.New("store is down")
	}
	for _, a := range f.records {
		if a.Username == username || a.Email == email {
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeAuthRepo) FindByEmail(ctx context.Context, email string) (*models.AuthUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.records {
		if a.Email == email {
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeAuthRepo) FindByResetToken(ctx context.Context, token string) (*models.AuthUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.records {
		if a.PasswordResetToken != "" && a.PasswordResetToken == token {
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeAuthRepo) UpdatePasswordResetToken(ctx context.Context, id primitive.ObjectID, token string, expires int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.records[id]
	if !ok {
		return errors.New("no such record")
	}
	a.PasswordResetToken = token
	a.PasswordResetExpires = expires
	return nil
}

func (f *fakeAuthRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.records[id]
	if !ok {
		return errors.New("no such record")
	}
	a.Password = hashedPassword
	a.PasswordResetToken = ""
	a.PasswordResetExpires = 0
	return nil
}

func (f *fakeAuthRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fakeAuthRepo) get(id primitive.ObjectID) *models.AuthUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.records[id]; ok {
		clone := *a
		return &clone
	}
	return nil
}

type fakeUserRepo struct {
	mu        sync.Mutex
	records   map[primitive.ObjectID]*models.User
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{records: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	clone := *user
	f.records[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.records[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByAuthID(ctx context.Context, authID primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.records {
		if u.AuthID == authID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// fakeQueue records what the service enqueues.
type fakeQueue struct {
	mu   sync.Mutex
	jobs []enqueuedJob
	fail bool
}

type enqueuedJob struct {
	name    string
	payload interface{}
}

func (f *fakeQueue) Enqueue(ctx context.Context, jobName string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker is down")
	}
	f.jobs = append(f.jobs, enqueuedJob{name: jobName, payload: payload})
	return nil
}

func (f *fakeQueue) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

func (f *fakeQueue) last() enqueuedJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[len(f.jobs)-1]
}

var (
	_ repository.AuthRepository = (*fakeAuthRepo)(nil)
	_ repository.UserRepository = (*fakeUserRepo)(nil)
	_ JobQueue                  = (*fakeQueue)(nil)
)
