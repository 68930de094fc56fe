package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// User is the current-user record the auth backend maintains for a
// signed-in pilgrim. The record has carried two name spellings over
// time; Name() reconciles them.
type User struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	FullName    string `json:"fullName,omitempty"`
}

func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.FullName
}

var ErrNotFound = errors.New("session record not found")

// Store keeps ambient session state in Redis: the current-user record
// and the last-known-booking cache. Both are opaque JSON values owned
// by the auth subsystem; this service only reads and refreshes them.
type Store struct {
	rdb     *redis.Client
	userTTL time.Duration
}

func NewStore(rdb *redis.Client, userTTL time.Duration) *Store {
	return &Store{rdb: rdb, userTTL: userTTL}
}

func userKey(userID int64) string {
	return fmt.Sprintf("darshan:session:user:%d", userID)
}

func activeBookingKey(userID int64) string {
	return fmt.Sprintf("darshan:active_booking:%d", userID)
}

func (s *Store) CurrentUser(ctx context.Context, userID int64) (*User, error) {
	raw, err := s.rdb.Get(ctx, userKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user record: %w", err)
	}

	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("parse user record: %w", err)
	}
	return &u, nil
}

func (s *Store) PutUser(ctx context.Context, u *User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user record: %w", err)
	}
	if err := s.rdb.Set(ctx, userKey(u.ID), raw, s.userTTL).Err(); err != nil {
		return fmt.Errorf("store user record: %w", err)
	}
	return nil
}

// GetActiveBooking reads the cached last-known booking for a user.
func (s *Store) GetActiveBooking(ctx context.Context, userID int64, out any) error {
	raw, err := s.rdb.Get(ctx, activeBookingKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load active booking cache: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse active booking cache: %w", err)
	}
	return nil
}

func (s *Store) SetActiveBooking(ctx context.Context, userID int64, booking any, ttl time.Duration) error {
	raw, err := json.Marshal(booking)
	if err != nil {
		return fmt.Errorf("encode active booking: %w", err)
	}
	if err := s.rdb.Set(ctx, activeBookingKey(userID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache active booking: %w", err)
	}
	return nil
}

func (s *Store) ClearActiveBooking(ctx context.Context, userID int64) error {
	return s.rdb.Del(ctx, activeBookingKey(userID)).Err()
}
