package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/winter-backend/internal/apperror"
	"github.com/AnshRaj112/winter-backend/internal/cache"
	"github.com/AnshRaj112/winter-backend/internal/models"
	"github.com/AnshRaj112/winter-backend/internal/repository"
	"github.com/AnshRaj112/winter-backend/internal/token"
	"github.com/AnshRaj112/winter-backend/pkg/utils"
)

// Job names per queue family. Workers consume them in workers.go.
const (
	JobAddAuthUser = "addAuthUserToDB"
	JobAddUser     = "addUserToDB"
	JobSendEmail   = "sendEmail"
)

// resetTokenTTL bounds how long a password-reset token stays valid.
const resetTokenTTL = time.Hour

// JobQueue is the enqueue-side contract of the job queue.
type JobQueue interface {
	Enqueue(ctx context.Context, jobName string, payload interface{}) error
}

// SignUpModel is the validated signup input.
type SignUpModel struct {
	Username    string
	Email       string
	Password    string
	AvatarColor string
	AvatarImage string // base64 data URI, optional
}

// SignInModel is the validated signin input.
type SignInModel struct {
	Email    string
	Password string
}

// AuthResult pairs a session token with the profile it authenticates.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService owns the signup / signin / password-reset / current-user state
// transitions. On signup the profile becomes visible through the cache before
// the durable writes are guaranteed: the cache write is synchronous and the
// database writes ride the job queues.
type AuthService struct {
	authRepo   repository.AuthRepository
	userRepo   repository.UserRepository
	userCache  *cache.UserCache
	authQueue  JobQueue
	userQueue  JobQueue
	emailQueue JobQueue
	issuer     *token.Issuer
	avatars    Avatars
	clientURL  string
}

func NewAuthService(
	authRepo repository.AuthRepository,
	userRepo repository.UserRepository,
	userCache *cache.UserCache,
	authQueue, userQueue, emailQueue JobQueue,
	issuer *token.Issuer,
	avatars Avatars,
	clientURL string,
) *AuthService {
	return &AuthService{
		authRepo:   authRepo,
		userRepo:   userRepo,
		userCache:  userCache,
		authQueue:  authQueue,
		userQueue:  userQueue,
		emailQueue: emailQueue,
		issuer:     issuer,
		avatars:    avatars,
		clientURL:  clientURL,
	}
}

// SignUp creates an account. Ordering matters: uniqueness check against the
// database, cache write (must succeed), queue enqueues, then the token — so a
// client holding a fresh token is guaranteed a cache-visible profile.
func (s *AuthService) SignUp(ctx context.Context, model SignUpModel) (*AuthResult, error) {
	username := utils.NormalizeUsername(model.Username)
	email := utils.NormalizeEmail(model.Email)

	// The cache is a read optimization for profiles; identity admission is
	// always decided against the durable store.
	existing, err := s.authRepo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		log.Printf("auth: signup uniqueness check failed: %v", err)
		return nil, apperror.Server("Something went wrong. Try again")
	}
	if existing != nil {
		return nil, apperror.Conflict("A user with these credentials already exists")
	}

	uID, err := utils.GenerateUID()
	if err != nil {
		return nil, apperror.Server("Something went wrong. Try again")
	}

	hashedPassword, err := utils.HashPassword(model.Password)
	if err != nil {
		return nil, apperror.Server("Something went wrong. Try again")
	}

	authID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	now := time.Now().UTC()

	auth := &models.AuthUser{
		ID:          authID,
		UID:         uID,
		Username:    username,
		Email:       email,
		Password:    hashedPassword,
		AvatarColor: model.AvatarColor,
		CreatedAt:   now,
	}

	avatarURL := ""
	if model.AvatarImage != "" && s.avatars != nil {
		uploaded, err := s.avatars.Upload(ctx, model.AvatarImage, userID.Hex())
		if err != nil {
			log.Printf("auth: avatar upload failed for %s: %v", username, err)
			return nil, apperror.BadRequest("Error when uploading avatar image. Try again")
		}
		avatarURL = uploaded.URL
	}

	user := newUserProjection(userID, auth, avatarURL)

	// Cache-ahead write: the projection must be readable the moment the token
	// is returned, so a cache failure fails the whole signup.
	if err := s.userCache.Save(ctx, userID.Hex(), uID, user); err != nil {
		log.Printf("auth: cache write failed for %s: %v", username, err)
		return nil, apperror.Server("Error when saving to redis. Try again")
	}

	// One job per entity per signup; workers upsert, so a retry cannot
	// duplicate either record.
	if err := s.authQueue.Enqueue(ctx, JobAddAuthUser, auth); err != nil {
		log.Printf("auth: enqueue %s failed: %v", JobAddAuthUser, err)
		return nil, apperror.Server("Something went wrong. Try again")
	}
	if err := s.userQueue.Enqueue(ctx, JobAddUser, user); err != nil {
		log.Printf("auth: enqueue %s failed: %v", JobAddUser, err)
		return nil, apperror.Server("Something went wrong. Try again")
	}

	signed, err := s.issuer.Sign(auth, userID.Hex())
	if err != nil {
		log.Printf("auth: token signing failed for %s: %v", username, err)
		return nil, apperror.Server("Something went wrong. Try again")
	}

	return &AuthResult{Token: signed, User: user}, nil
}

// SignIn authenticates against the durable store only; it is the cold path
// and never consults the cache. The same error covers unknown email and wrong
// password so accounts cannot be enumerated.
func (s *AuthService) SignIn(ctx context.Context, model SignInModel) (*AuthResult, error) {
	email := utils.NormalizeEmail(model.Email)

	auth, err := s.authRepo.FindByEmail(ctx, email)
	if err != nil {
		log.Printf("auth: signin lookup failed: %v", err)
		return nil, apperror.Server("Something went wrong. Try again")
	}
	if auth == nil {
		return nil, apperror.BadRequest("Invalid credentials")
	}

	valid, err := utils.VerifyPassword(model.Password, auth.Password)
	if err != nil || !valid {
		return nil, apperror.BadRequest("Invalid credentials")
	}

	user, err := s.userRepo.FindByAuthID(ctx, auth.ID)
	if err != nil {
		log.Printf("auth: signin profile lookup failed: %v", err)
		return nil, apperror.Server("Something went wrong. Try again")
	}
	if user == nil {
		// Profile write from signup has not landed yet (eventual-consistency
		// window on the cold path). Indistinguishable from bad credentials.
		return nil, apperror.BadRequest("Invalid credentials")
	}

	// Merge durable credential fields over the stored projection.
	user.UID = auth.UID
	user.Username = auth.Username
	user.Email = auth.Email
	user.AvatarColor = auth.AvatarColor

	signed, err := s.issuer.Sign(auth, user.ID.Hex())
	if err != nil {
		log.Printf("auth: token signing failed for %s: %v", auth.Username, err)
		return nil, apperror.Server("Something went wrong. Try again")
	}

	return &AuthResult{Token: signed, User: user}, nil
}

// ForgotPassword stores a one-hour reset token on the credential record and
// queues the reset email. The token is returned for the out-of-band mail job.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	auth, err := s.authRepo.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		log.Printf("auth: forgot-password lookup failed: %v", err)
		return "", apperror.Server("Something went wrong. Try again")
	}
	if auth == nil {
		return "", apperror.BadRequest("Invalid credentials")
	}

	resetToken, err := utils.GenerateResetToken()
	if err != nil {
		return "", apperror.Server("Something went wrong. Try again")
	}

	expires := time.Now().Add(resetTokenTTL).UnixMilli()
	if err := s.authRepo.UpdatePasswordResetToken(ctx, auth.ID, resetToken, expires); err != nil {
		log.Printf("auth: storing reset token failed: %v", err)
		return "", apperror.Server("Something went wrong. Try again")
	}

	resetLink := s.clientURL + "/reset-password?token=" + resetToken
	s.enqueueEmail(ctx, EmailJob{
		ReceiverEmail: auth.Email,
		Subject:       "Reset your password",
		HTML:          ResetPasswordTemplate(auth.Username, resetLink),
	})

	return resetToken, nil
}

// ResetPassword consumes a reset token: the password update and the token
// clear happen in one durable update, so the token is single-use.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, password string) error {
	auth, err := s.authRepo.FindByResetToken(ctx, resetToken)
	if err != nil {
		log.Printf("auth: reset-token lookup failed: %v", err)
		return apperror.Server("Something went wrong. Try again")
	}
	if auth == nil {
		return apperror.BadRequest("Invalid reset token")
	}
	if auth.PasswordResetExpires < time.Now().UnixMilli() {
		return apperror.BadRequest("Reset token has expired")
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return apperror.Server("Something went wrong. Try again")
	}

	if err := s.authRepo.UpdatePassword(ctx, auth.ID, hashedPassword); err != nil {
		log.Printf("auth: password update failed: %v", err)
		return apperror.Server("Something went wrong. Try again")
	}

	s.enqueueEmail(ctx, EmailJob{
		ReceiverEmail: auth.Email,
		Subject:       "Password changed",
		HTML:          PasswordChangedTemplate(auth.Username),
	})

	return nil
}

// CurrentUser resolves the authenticated identity: cache first, database on a
// miss. A cache error is treated as a miss, not a failure.
func (s *AuthService) CurrentUser(ctx context.Context, payload *models.AuthPayload) (*models.User, error) {
	user, err := s.userCache.Get(ctx, payload.UserID)
	if err != nil {
		log.Printf("auth: cache read failed for %s: %v", payload.UserID, err)
	}
	if user != nil {
		return user, nil
	}

	id, err := primitive.ObjectIDFromHex(payload.UserID)
	if err != nil {
		return nil, apperror.NotFound("User not found")
	}

	user, err = s.userRepo.FindByID(ctx, id)
	if err != nil {
		log.Printf("auth: current-user lookup failed for %s: %v", payload.UserID, err)
		return nil, apperror.Server("Something went wrong. Try again")
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}
	return user, nil
}

// enqueueEmail is best-effort: a mail job that cannot be queued is logged and
// the request still succeeds.
func (s *AuthService) enqueueEmail(ctx context.Context, job EmailJob) {
	if s.emailQueue == nil {
		return
	}
	if err := s.emailQueue.Enqueue(ctx, JobSendEmail, job); err != nil {
		log.Printf("auth: enqueue %s failed: %v", JobSendEmail, err)
	}
}

// newUserProjection builds the denormalized profile created at signup:
// zeroed counters, all notifications on, empty social links.
func newUserProjection(userID primitive.ObjectID, auth *models.AuthUser, avatarURL string) *models.User {
	return &models.User{
		ID:          userID,
		AuthID:      auth.ID,
		UID:         auth.UID,
		Username:    auth.Username,
		Email:       auth.Email,
		AvatarColor: auth.AvatarColor,
		Avatar:      avatarURL,
		Blocked:     []primitive.ObjectID{},
		BlockedBy:   []primitive.ObjectID{},
		Notifications: models.NotificationSettings{
			Message:  true,
			Reaction: true,
			Comment:  true,
			Follows:  true,
		},
		Social:    models.SocialLinks{},
		CreatedAt: auth.CreatedAt,
	}
}
