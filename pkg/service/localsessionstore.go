// Copyright 2023 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package service

import (
	"context"
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/livekit/recording-gateway/pkg/recording"
)

// LocalSessionStore keeps sessions in process memory. They are lost on restart.
type LocalSessionStore struct {
	// room => session
	sessions cmap.ConcurrentMap[string, *recording.Session]
}

func NewLocalSessionStore() *LocalSessionStore {
	return &LocalSessionStore{
		sessions: cmap.New[*recording.Session](),
	}
}

func (s *LocalSessionStore) StoreSessionIfAbsent(_ context.Context, session *recording.Session) (*recording.Session, error) {
	stored := *session
	for {
		if s.sessions.SetIfAbsent(session.Room, &stored) {
			return nil, nil
		}
		if existing, ok := s.sessions.Get(session.Room); ok {
			c := *existing
			return &c, nil
		}
		// removed between the two calls, try again
	}
}

func (s *LocalSessionStore) LoadSession(_ context.Context, room string) (*recording.Session, error) {
	session, ok := s.sessions.Get(room)
	if !ok {
		return nil, ErrRecordingNotFound
	}
	c := *session
	return &c, nil
}

func (s *LocalSessionStore) LoadSessionByID(_ context.Context, sessionID string) (*recording.Session, error) {
	for item := range s.sessions.IterBuffered() {
		if item.Val.SessionID == sessionID {
			c := *item.Val
			return &c, nil
		}
	}
	return nil, ErrRecordingNotFound
}

func (s *LocalSessionStore) ListSessions(_ context.Context) ([]*recording.Session, error) {
	sessions := make([]*recording.Session, 0, s.sessions.Count())
	for _, session := range s.sessions.Items() {
		c := *session
		sessions = append(sessions, &c)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Room < sessions[j].Room
	})
	return sessions, nil
}

func (s *LocalSessionStore) DeleteSession(_ context.Context, room string, sessionID string) (bool, error) {
	return s.sessions.RemoveCb(room, func(_ string, session *recording.Session, exists bool) bool {
		return exists && (sessionID == "" || session.SessionID == sessionID)
	}), nil
}
