package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/winter-backend/internal/models"
	"github.com/AnshRaj112/winter-backend/internal/queue"
	"github.com/AnshRaj112/winter-backend/internal/repository"
)

func makeJob(t *testing.T, name string, payload interface{}) queue.Job {
	t.Helper()
	data, err := bson.MarshalExtJSON(payload, false, false)
	require.NoError(t, err)
	return queue.Job{ID: "job-1", Name: name, Payload: json.RawMessage(data)}
}

func TestAuthWorker_PersistsCredentialRecord(t *testing.T) {
	repo := newFakeAuthRepo()
	worker := NewAuthWorker(repo)

	auth := &models.AuthUser{
		ID:        primitive.NewObjectID(),
		UID:       "123456789012",
		Username:  "ada",
		Email:     "ada@x.com",
		Password:  "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	require.NoError(t, worker(context.Background(), makeJob(t, JobAddAuthUser, auth)))

	stored := repo.get(auth.ID)
	require.NotNil(t, stored)
	require.Equal(t, auth.Username, stored.Username)
	// The hash must survive the queue trip even though JSON hides it.
	require.Equal(t, auth.Password, stored.Password)
	require.True(t, auth.CreatedAt.Equal(stored.CreatedAt))
}

// Replaying the same payload must not produce a second record: delivery is
// at-least-once and the store-side create is an upsert.
func TestAuthWorker_ReplayIsIdempotent(t *testing.T) {
	repo := newFakeAuthRepo()
	worker := NewAuthWorker(repo)

	auth := &models.AuthUser{ID: primitive.NewObjectID(), Username: "ada", Email: "ada@x.com"}
	job := makeJob(t, JobAddAuthUser, auth)

	require.NoError(t, worker(context.Background(), job))
	require.NoError(t, worker(context.Background(), job))
	require.NoError(t, worker(context.Background(), job))

	require.Equal(t, 1, repo.count())
}

func TestUserWorker_ReplayIsIdempotent(t *testing.T) {
	repo := newFakeUserRepo()
	worker := NewUserWorker(repo)

	user := &models.User{
		ID:        primitive.NewObjectID(),
		AuthID:    primitive.NewObjectID(),
		Username:  "ada",
		Blocked:   []primitive.ObjectID{},
		BlockedBy: []primitive.ObjectID{},
	}
	job := makeJob(t, JobAddUser, user)

	require.NoError(t, worker(context.Background(), job))
	require.NoError(t, worker(context.Background(), job))

	require.Equal(t, 1, repo.count())
}

// Losing the unique-index race to a concurrent signup is terminal: retrying
// cannot change the outcome, so the worker must swallow it instead of burning
// the retry budget.
func TestAuthWorker_DuplicateKeyIsTerminal(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.createErr = repository.ErrDuplicateKey
	worker := NewAuthWorker(repo)

	auth := &models.AuthUser{ID: primitive.NewObjectID(), Username: "ada", Email: "ada@x.com"}
	require.NoError(t, worker(context.Background(), makeJob(t, JobAddAuthUser, auth)))
	require.Equal(t, 0, repo.count())
}

func TestUserWorker_DuplicateKeyIsTerminal(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = repository.ErrDuplicateKey
	worker := NewUserWorker(repo)

	user := &models.User{
		ID:        primitive.NewObjectID(),
		Username:  "ada",
		Blocked:   []primitive.ObjectID{},
		BlockedBy: []primitive.ObjectID{},
	}
	require.NoError(t, worker(context.Background(), makeJob(t, JobAddUser, user)))
}

// Other store failures still propagate so the queue retries them.
func TestAuthWorker_StoreFailurePropagates(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.createErr = errors.New("store is down")
	worker := NewAuthWorker(repo)

	auth := &models.AuthUser{ID: primitive.NewObjectID(), Username: "ada"}
	require.Error(t, worker(context.Background(), makeJob(t, JobAddAuthUser, auth)))
}

func TestAuthWorker_BadPayload(t *testing.T) {
	worker := NewAuthWorker(newFakeAuthRepo())
	err := worker(context.Background(), queue.Job{Payload: json.RawMessage(`{"_id": 12`)})
	require.Error(t, err)
}

type recordingMailer struct {
	sent []EmailJob
	err  error
}

func (m *recordingMailer) Send(to, subject, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, EmailJob{ReceiverEmail: to, Subject: subject, HTML: html})
	return nil
}

func TestEmailWorker_DeliversQueuedMail(t *testing.T) {
	mailer := &recordingMailer{}
	worker := NewEmailWorker(mailer)

	job := makeJob(t, JobSendEmail, EmailJob{
		ReceiverEmail: "ada@x.com",
		Subject:       "Reset your password",
		HTML:          ResetPasswordTemplate("ada", "http://localhost:3000/reset-password?token=abc"),
	})

	require.NoError(t, worker(context.Background(), job))
	require.Len(t, mailer.sent, 1)
	require.Equal(t, "ada@x.com", mailer.sent[0].ReceiverEmail)
	require.Contains(t, mailer.sent[0].HTML, "token=abc")
}

func TestEmailWorker_PropagatesSendFailure(t *testing.T) {
	worker := NewEmailWorker(&recordingMailer{err: errors.New("relay refused")})
	job := makeJob(t, JobSendEmail, EmailJob{ReceiverEmail: "ada@x.com"})
	require.Error(t, worker(context.Background(), job))
}
