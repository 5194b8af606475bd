// Package entitlement decides whether a user has unlimited questions and
// keeps the daily question counter of free users.
package entitlement

import (
	"context"
	"time"

	"deenly/deenly/services/chat"
	"deenly/deenly/sources/psql/models"
)

type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type UsageStore interface {
	GetCount(ctx context.Context, userID, day string) (int, error)
	Increment(ctx context.Context, userID, day string) error
}

type Source struct {
	users UserStore
	usage UsageStore
	loc   *time.Location
}

// NewSource counts days in loc. A nil loc means the server's local zone.
func NewSource(users UserStore, usage UsageStore, loc *time.Location) *Source {
	if loc == nil {
		loc = time.Local
	}
	return &Source{users: users, usage: usage, loc: loc}
}

// Day is the calendar day a question counts toward.
func (s *Source) Day(t time.Time) string {
	return t.In(s.loc).Format("2006-01-02")
}

func (s *Source) IsPremium(ctx context.Context, userID string) (bool, error) {
	if chat.IsGuest(userID) {
		return false, nil
	}
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil || u == nil {
		return false, err
	}
	return u.IsPremium, nil
}

func (s *Source) DailyQuestionCount(ctx context.Context, userID string, date time.Time) (int, error) {
	if chat.IsGuest(userID) {
		return 0, nil
	}
	return s.usage.GetCount(ctx, userID, s.Day(date))
}

func (s *Source) IncrementDailyCount(ctx context.Context, userID string, date time.Time) error {
	if chat.IsGuest(userID) {
		return nil
	}
	return s.usage.Increment(ctx, userID, s.Day(date))
}
