package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

type BoltStore struct {
	db               *bolt.DB
	bktSubscriptions []byte
	bktByPerformer   []byte
	bktTokens        []byte
}

var (
	bucketSubscriptions = []byte("subscriptions")
	bucketByPerformer   = []byte("subscriptions_by_performer")
	bucketTokens        = []byte("tokens")
)

// tokenKey is the singleton key for the cached channel access token.
var tokenKey = []byte("channel_access_token")

func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	prefix := os.Getenv("DB_TABLE_PREFIX")
	bktSubs := []byte(prefix + string(bucketSubscriptions))
	bktIdx := []byte(prefix + string(bucketByPerformer))
	bktToks := []byte(prefix + string(bucketTokens))
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bktSubs, bktIdx, bktToks} {
			if _, e := tx.CreateBucketIfNotExists(b); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, bktSubscriptions: bktSubs, bktByPerformer: bktIdx, bktTokens: bktToks}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

// indexKey builds the secondary index key performer/userID.
func indexKey(performer, userID string) []byte {
	return []byte(performer + "/" + userID)
}

func (s *BoltStore) PutSubscription(sub Subscription) error {
	if sub.UserID == "" {
		return fmt.Errorf("user id required")
	}
	if sub.Performer == "" {
		return fmt.Errorf("performer required")
	}
	now := time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.LastUpdatedAt = now
	b, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		subs := tx.Bucket(s.bktSubscriptions)
		idx := tx.Bucket(s.bktByPerformer)
		// drop the old index entry when the user switches performer
		if old := subs.Get([]byte(sub.UserID)); old != nil {
			var prev Subscription
			if err := json.Unmarshal(old, &prev); err == nil && prev.Performer != sub.Performer {
				if err := idx.Delete(indexKey(prev.Performer, sub.UserID)); err != nil {
					return err
				}
			}
		}
		if err := subs.Put([]byte(sub.UserID), b); err != nil {
			return err
		}
		return idx.Put(indexKey(sub.Performer, sub.UserID), []byte(sub.UserID))
	})
}

func (s *BoltStore) GetSubscription(userID string) (Subscription, error) {
	var sub Subscription
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bktSubscriptions)
		v := b.Get([]byte(userID))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &sub)
	})
	return sub, err
}

func (s *BoltStore) DeleteSubscription(userID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		subs := tx.Bucket(s.bktSubscriptions)
		v := subs.Get([]byte(userID))
		if v == nil {
			return nil
		}
		var sub Subscription
		if err := json.Unmarshal(v, &sub); err == nil {
			if err := tx.Bucket(s.bktByPerformer).Delete(indexKey(sub.Performer, userID)); err != nil {
				return err
			}
		}
		return subs.Delete([]byte(userID))
	})
}

func (s *BoltStore) ListByPerformer(performerKey string) ([]Subscription, error) {
	var subs []Subscription
	prefix := []byte(performerKey + "/")
	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(s.bktByPerformer)
		b := tx.Bucket(s.bktSubscriptions)
		c := idx.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			raw := b.Get(v)
			if raw == nil {
				continue
			}
			var sub Subscription
			if err := json.Unmarshal(raw, &sub); err != nil {
				return err
			}
			subs = append(subs, sub)
		}
		return nil
	})
	return subs, err
}

func (s *BoltStore) GetToken() (CachedToken, error) {
	var tok CachedToken
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bktTokens).Get(tokenKey)
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &tok)
	})
	return tok, err
}

func (s *BoltStore) PutToken(tok CachedToken) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bktTokens).Put(tokenKey, b)
	})
}
