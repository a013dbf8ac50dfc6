package store

import (
	"errors"
	"time"
)

// Subscription maps a LINE user to the single performer they follow.
// Overwritten when the user picks a new performer, deleted on unfollow.
type Subscription struct {
	UserID        string    `json:"user_id"`
	Performer     string    `json:"performer"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// CachedToken is the singleton channel access token record. Valid while
// ExpiresAt (unix seconds) is in the future.
type CachedToken struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Store abstracts persistent storage operations
type Store interface {
	Close() error

	// Subscriptions
	PutSubscription(sub Subscription) error
	GetSubscription(userID string) (Subscription, error)
	DeleteSubscription(userID string) error
	ListByPerformer(performerKey string) ([]Subscription, error)

	// Token cache
	GetToken() (CachedToken, error)
	PutToken(tok CachedToken) error
}

var ErrNotFound = errors.New("not found")
