package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/AnshRaj112/winter-backend/internal/models"
	"github.com/AnshRaj112/winter-backend/internal/queue"
	"github.com/AnshRaj112/winter-backend/internal/repository"
)

// NewAuthWorker returns the handler that flushes queued credential records to
// the database. Create is an upsert, so replayed deliveries are harmless. A
// duplicate-key error means another signup won the unique index race; the
// outcome cannot change on retry, so the job completes as a no-op.
func NewAuthWorker(repo repository.AuthRepository) queue.Handler {
	return func(ctx context.Context, job queue.Job) error {
		var auth models.AuthUser
		if err := job.DecodePayload(&auth); err != nil {
			return fmt.Errorf("decode auth payload: %w", err)
		}
		if err := repo.Create(ctx, &auth); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				log.Printf("auth worker: credentials for %s already taken, dropping job %s", auth.Username, job.ID)
				return nil
			}
			return err
		}
		return nil
	}
}

// NewUserWorker returns the handler that flushes queued profile projections.
// Duplicate-key losses are terminal here too.
func NewUserWorker(repo repository.UserRepository) queue.Handler {
	return func(ctx context.Context, job queue.Job) error {
		var user models.User
		if err := job.DecodePayload(&user); err != nil {
			return fmt.Errorf("decode user payload: %w", err)
		}
		if err := repo.Create(ctx, &user); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				log.Printf("user worker: profile for %s already exists, dropping job %s", user.Username, job.ID)
				return nil
			}
			return err
		}
		return nil
	}
}

// NewEmailWorker returns the handler that delivers queued mail.
func NewEmailWorker(mailer Mailer) queue.Handler {
	return func(ctx context.Context, job queue.Job) error {
		var email EmailJob
		if err := job.DecodePayload(&email); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		return mailer.Send(email.ReceiverEmail, email.Subject, email.HTML)
	}
}
