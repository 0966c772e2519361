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
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/recording-gateway/pkg/recording"
)

const (
	// RecordingSessionsKey is hash of room => session json
	RecordingSessionsKey = "recording_sessions"

	// RecordingSessionIDsKey is hash of session id => room
	RecordingSessionIDsKey = "recording_session_ids"

	maxRetries = 5
)

var errTxRetriesExhausted = errors.New("redis transaction retries exhausted")

// RedisSessionStore shares sessions between gateway instances and keeps them across
// restarts.
type RedisSessionStore struct {
	rc redis.UniversalClient
}

func NewRedisSessionStore(rc redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{
		rc: rc,
	}
}

func (s *RedisSessionStore) StoreSessionIfAbsent(ctx context.Context, session *recording.Session) (*recording.Session, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}

	var existing *recording.Session
	txf := func(tx *redis.Tx) error {
		existing, err = s.loadSession(ctx, tx, session.Room)
		switch err {
		case ErrRecordingNotFound:
		case nil:
			return nil
		default:
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, RecordingSessionsKey, session.Room, data)
			p.HSet(ctx, RecordingSessionIDsKey, session.SessionID, session.Room)
			return nil
		})
		return err
	}

	if err = s.watch(ctx, txf); err != nil {
		return nil, errors.Wrap(err, "could not store recording session")
	}
	return existing, nil
}

func (s *RedisSessionStore) LoadSession(ctx context.Context, room string) (*recording.Session, error) {
	return s.loadSession(ctx, s.rc, room)
}

func (s *RedisSessionStore) loadSession(ctx context.Context, c redis.Cmdable, room string) (*recording.Session, error) {
	data, err := c.HGet(ctx, RecordingSessionsKey, room).Result()
	switch err {
	case nil:
	case redis.Nil:
		return nil, ErrRecordingNotFound
	default:
		return nil, err
	}

	session := &recording.Session{}
	if err = json.Unmarshal([]byte(data), session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *RedisSessionStore) LoadSessionByID(ctx context.Context, sessionID string) (*recording.Session, error) {
	room, err := s.rc.HGet(ctx, RecordingSessionIDsKey, sessionID).Result()
	switch err {
	case nil:
	case redis.Nil:
		return nil, ErrRecordingNotFound
	default:
		return nil, err
	}

	session, err := s.LoadSession(ctx, room)
	if err != nil {
		return nil, err
	}
	if session.SessionID != sessionID {
		// stale index entry
		return nil, ErrRecordingNotFound
	}
	return session, nil
}

func (s *RedisSessionStore) ListSessions(ctx context.Context) ([]*recording.Session, error) {
	items, err := s.rc.HGetAll(ctx, RecordingSessionsKey).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*recording.Session, 0, len(items))
	for room, data := range items {
		session := &recording.Session{}
		if err := json.Unmarshal([]byte(data), session); err != nil {
			logger.Warnw("could not decode recording session", err, "room", room)
			continue
		}
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Room < sessions[j].Room
	})
	return sessions, nil
}

func (s *RedisSessionStore) DeleteSession(ctx context.Context, room string, sessionID string) (bool, error) {
	var deleted bool
	txf := func(tx *redis.Tx) error {
		deleted = false
		session, err := s.loadSession(ctx, tx, room)
		switch err {
		case ErrRecordingNotFound:
			return nil
		case nil:
		default:
			return err
		}
		if sessionID != "" && session.SessionID != sessionID {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HDel(ctx, RecordingSessionsKey, room)
			p.HDel(ctx, RecordingSessionIDsKey, session.SessionID)
			return nil
		})
		if err == nil {
			deleted = true
		}
		return err
	}

	if err := s.watch(ctx, txf); err != nil {
		return false, errors.Wrap(err, "could not delete recording session")
	}
	return deleted, nil
}

func (s *RedisSessionStore) watch(ctx context.Context, txf func(tx *redis.Tx) error) error {
	// retry if the hash has been changed
	for i := 0; i < maxRetries; i++ {
		err := s.rc.Watch(ctx, txf, RecordingSessionsKey)
		switch err {
		case redis.TxFailedErr:
			// optimistic lock lost
			continue
		default:
			return err
		}
	}
	return errTxRetriesExhausted
}
