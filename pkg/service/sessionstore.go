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

	"github.com/livekit/recording-gateway/pkg/recording"
)

// SessionStore keeps at most one recording session per room.
type SessionStore interface {
	// StoreSessionIfAbsent inserts session unless its room already has one, in which
	// case the existing session is returned and nothing is written.
	StoreSessionIfAbsent(ctx context.Context, session *recording.Session) (existing *recording.Session, err error)
	// LoadSession returns ErrRecordingNotFound when room is idle.
	LoadSession(ctx context.Context, room string) (*recording.Session, error)
	// LoadSessionByID returns ErrRecordingNotFound when no room is recording under sessionID.
	LoadSessionByID(ctx context.Context, sessionID string) (*recording.Session, error)
	ListSessions(ctx context.Context) ([]*recording.Session, error)
	// DeleteSession removes the session of room if its id is sessionID, or whatever
	// session room has when sessionID is empty. It reports whether anything was removed.
	DeleteSession(ctx context.Context, room string, sessionID string) (bool, error)
}
