package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/winter-backend/internal/models"
)

const (
	// userKeyPrefix is the Redis hash key prefix for cached user projections
	userKeyPrefix = "users:"
	// userRankKey is the sorted set indexing user ids by their numeric uId
	userRankKey = "user"
)

// UserCache stores the profile projection in Redis as a flattened hash, plus a
// rank entry in a sorted set scored by the numeric short id. Serialization is
// symmetric: every field written by Save is reconstructed by Get.
type UserCache struct {
	client *redis.Client
}

func NewUserCache(client *redis.Client) *UserCache {
	return &UserCache{client: client}
}

func userKey(userID string) string {
	return userKeyPrefix + userID
}

// Save writes the projection under users:<id> and records the id in the rank
// index. Signup depends on this succeeding before any queue work is scheduled.
func (c *UserCache) Save(ctx context.Context, userID string, uID string, user *models.User) error {
	fields, err := flattenUser(user)
	if err != nil {
		return fmt.Errorf("usercache: flatten: %w", err)
	}

	score, err := strconv.ParseFloat(uID, 64)
	if err != nil {
		return fmt.Errorf("usercache: uId %q is not numeric: %w", uID, err)
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, userRankKey, redis.Z{Score: score, Member: userID})
	pipe.HSet(ctx, userKey(userID), fields)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("usercache: save %s: %w", userID, err)
	}
	return nil
}

// Get reads the projection back. A missing key is (nil, nil), not an error.
func (c *UserCache) Get(ctx context.Context, userID string) (*models.User, error) {
	fields, err := c.client.HGetAll(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("usercache: get %s: %w", userID, err)
	}
	if len(fields) == 0 {
		return nil, nil // cache miss
	}

	user, err := unflattenUser(fields)
	if err != nil {
		return nil, fmt.Errorf("usercache: decode %s: %w", userID, err)
	}
	return user, nil
}

// Delete removes a cached projection and its rank entry.
func (c *UserCache) Delete(ctx context.Context, userID string) error {
	pipe := c.client.Pipeline()
	pipe.Del(ctx, userKey(userID))
	pipe.ZRem(ctx, userRankKey, userID)
	_, err := pipe.Exec(ctx)
	return err
}

// flattenUser converts the projection into string hash fields. Strings are
// stored raw, numbers via strconv, times as RFC3339Nano, nested objects and
// id lists as JSON.
func flattenUser(user *models.User) (map[string]string, error) {
	blocked, err := json.Marshal(user.Blocked)
	if err != nil {
		return nil, err
	}
	blockedBy, err := json.Marshal(user.BlockedBy)
	if err != nil {
		return nil, err
	}
	notifications, err := json.Marshal(user.Notifications)
	if err != nil {
		return nil, err
	}
	social, err := json.Marshal(user.Social)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"_id":            user.ID.Hex(),
		"authId":         user.AuthID.Hex(),
		"uId":            user.UID,
		"username":       user.Username,
		"email":          user.Email,
		"avatarColor":    user.AvatarColor,
		"avatar":         user.Avatar,
		"bgImage":        user.BgImage,
		"bgImageId":      user.BgImageID,
		"blocked":        string(blocked),
		"blockedBy":      string(blockedBy),
		"followersCount": strconv.Itoa(user.FollowersCount),
		"followingCount": strconv.Itoa(user.FollowingCount),
		"postsCount":     strconv.Itoa(user.PostsCount),
		"notifications":  string(notifications),
		"social":         string(social),
		"createdAt":      user.CreatedAt.Format(time.RFC3339Nano),
	}, nil
}

func unflattenUser(fields map[string]string) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(fields["_id"])
	if err != nil {
		return nil, fmt.Errorf("bad _id: %w", err)
	}
	authID, err := primitive.ObjectIDFromHex(fields["authId"])
	if err != nil {
		return nil, fmt.Errorf("bad authId: %w", err)
	}

	user := &models.User{
		ID:          id,
		AuthID:      authID,
		UID:         fields["uId"],
		Username:    fields["username"],
		Email:       fields["email"],
		AvatarColor: fields["avatarColor"],
		Avatar:      fields["avatar"],
		BgImage:     fields["bgImage"],
		BgImageID:   fields["bgImageId"],
	}

	if err := json.Unmarshal([]byte(fields["blocked"]), &user.Blocked); err != nil {
		return nil, fmt.Errorf("bad blocked: %w", err)
	}
	if err := json.Unmarshal([]byte(fields["blockedBy"]), &user.BlockedBy); err != nil {
		return nil, fmt.Errorf("bad blockedBy: %w", err)
	}
	if err := json.Unmarshal([]byte(fields["notifications"]), &user.Notifications); err != nil {
		return nil, fmt.Errorf("bad notifications: %w", err)
	}
	if err := json.Unmarshal([]byte(fields["social"]), &user.Social); err != nil {
		return nil, fmt.Errorf("bad social: %w", err)
	}

	for _, field := range []struct {
		name string
		dest *int
	}{
		{"followersCount", &user.FollowersCount},
		{"followingCount", &user.FollowingCount},
		{"postsCount", &user.PostsCount},
	} {
		n, err := strconv.Atoi(fields[field.name])
		if err != nil {
			return nil, fmt.Errorf("bad %s: %w", field.name, err)
		}
		*field.dest = n
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["createdAt"])
	if err != nil {
		return nil, fmt.Errorf("bad createdAt: %w", err)
	}
	user.CreatedAt = createdAt

	return user, nil
}
