package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthUser is the credential record for a registered account. It is owned by
// the auth service and is never returned to clients with the password hash.
type AuthUser struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UID         string             `bson:"uId" json:"uId"`
	Username    string             `bson:"username" json:"username"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"` // Don't return password in JSON
	AvatarColor string             `bson:"avatarColor,omitempty" json:"avatarColor,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`

	// Password reset fields; cleared when the token is consumed
	PasswordResetToken   string `bson:"passwordResetToken,omitempty" json:"-"`
	PasswordResetExpires int64  `bson:"passwordResetExpires,omitempty" json:"-"` // unix milliseconds
}

// NotificationSettings controls which events generate notifications for a user.
type NotificationSettings struct {
	Message  bool `bson:"message" json:"message"`
	Reaction bool `bson:"reaction" json:"reaction"`
	Comment  bool `bson:"comment" json:"comment"`
	Follows  bool `bson:"follows" json:"follows"`
}

// SocialLinks holds optional links to a user's external profiles.
type SocialLinks struct {
	Facebook  string `bson:"facebook" json:"facebook"`
	Instagram string `bson:"instagram" json:"instagram"`
	Twitter   string `bson:"twitter" json:"twitter"`
	Youtube   string `bson:"youtube" json:"youtube"`
}

// User is the denormalized profile projection created at signup. The Redis
// cache holds the only immediately-consistent copy until the queued database
// write lands.
type User struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthID primitive.ObjectID `bson:"authId" json:"authId"`

	UID         string `bson:"uId" json:"uId"`
	Username    string `bson:"username" json:"username"`
	Email       string `bson:"email" json:"email"`
	AvatarColor string `bson:"avatarColor" json:"avatarColor"`
	Avatar      string `bson:"avatar" json:"avatar"`
	BgImage     string `bson:"bgImage" json:"bgImage"`
	BgImageID   string `bson:"bgImageId" json:"bgImageId"`

	Blocked   []primitive.ObjectID `bson:"blocked" json:"blocked"`
	BlockedBy []primitive.ObjectID `bson:"blockedBy" json:"blockedBy"`

	FollowersCount int `bson:"followersCount" json:"followersCount"`
	FollowingCount int `bson:"followingCount" json:"followingCount"`
	PostsCount     int `bson:"postsCount" json:"postsCount"`

	Notifications NotificationSettings `bson:"notifications" json:"notifications"`
	Social        SocialLinks          `bson:"social" json:"social"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// AuthPayload is the identity attached to a request after the session token
// has been verified.
type AuthPayload struct {
	UserID      string `json:"userId"`
	UID         string `json:"uId"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	AvatarColor string `json:"avatarColor"`
	IssuedAt    int64  `json:"iat,omitempty"`
}
