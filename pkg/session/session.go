// Package session holds the authenticated identity and the last-fetched
// story collection. It performs no network I/O; the token and user are
// written through to a persistent key/value area so a restart within the
// same session restores identity without a new login.
package session

import (
	"encoding/json"
	"errors"

	"github.com/storywalk/storywalk/internal/utils"
	"github.com/storywalk/storywalk/pkg/api"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

// User is the identity attached to a session token.
type User struct {
	Name   string `json:"name"`
	UserID string `json:"userId"`
}

// Store owns auth state and the story collection. Token is empty iff User
// is nil; auth is all-or-nothing.
type Store struct {
	kv      KV
	token   string
	user    *User
	stories []api.Story
}

// Open creates a store, rehydrating identity from the key/value area. If
// either key is missing or unreadable the session starts unauthenticated;
// a half-persisted identity is never restored.
func Open(kv KV) *Store {
	s := &Store{kv: kv}

	token, okToken, err := kv.Get(keyToken)
	if err != nil {
		utils.Log.Debugf("session restore: %v", err)
		return s
	}
	raw, okUser, err := kv.Get(keyUser)
	if err != nil {
		utils.Log.Debugf("session restore: %v", err)
		return s
	}
	if !okToken || !okUser {
		return s
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		utils.Log.Debugf("session restore: bad user record: %v", err)
		return s
	}
	s.token = token
	s.user = &user
	return s
}

// SetAuth records a successful login and writes both keys through. An
// empty token is rejected so a malformed login response can never leave
// a user persisted without a credential.
func (s *Store) SetAuth(token string, user User) error {
	if token == "" {
		return errors.New("session: refusing to store an empty token")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.kv.Set(keyToken, token); err != nil {
		return err
	}
	if err := s.kv.Set(keyUser, string(raw)); err != nil {
		return err
	}
	s.token = token
	s.user = &user
	return nil
}

// ClearAuth wipes identity and the story collection. Stories must never
// outlive the session that fetched them.
func (s *Store) ClearAuth() error {
	s.token = ""
	s.user = nil
	s.stories = nil
	return s.kv.Delete(keyToken, keyUser)
}

func (s *Store) IsLoggedIn() bool {
	return s.token != ""
}

func (s *Store) Token() string {
	return s.token
}

func (s *Store) UserName() string {
	if s.user == nil {
		return ""
	}
	return s.user.Name
}

// SetStories replaces the collection wholesale. There is no incremental
// merge.
func (s *Store) SetStories(stories []api.Story) {
	s.stories = stories
}

func (s *Store) Stories() []api.Story {
	return s.stories
}

// StoriesWithCoordinate is a filter projection; it does not mutate the
// collection.
func (s *Store) StoriesWithCoordinate() []api.Story {
	var out []api.Story
	for _, story := range s.stories {
		if story.HasLocation {
			out = append(out, story)
		}
	}
	return out
}
