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

package recording

import (
	"path"
	"strings"
	"time"
)

const (
	UnknownIdentity = "unknown"

	DefaultFilePrefix = "recordings"
	FileExtension     = ".ogg"

	// millisecond resolution keeps paths unique for back to back recordings of a room
	pathTimeFormat = "20060102-150405.000"
)

// Session is the tracked state of one active room recording.
type Session struct {
	Room       string    `json:"room"`
	SessionID  string    `json:"sessionId"`
	StartedBy  string    `json:"startedBy"`
	StartedAt  time.Time `json:"startedAt"`
	OutputPath string    `json:"outputPath"`
}

// Status is the answer to "is this room being recorded". Only IsRecording is set
// when the room is idle.
type Status struct {
	IsRecording bool       `json:"isRecording"`
	SessionID   string     `json:"sessionId,omitempty"`
	StartedBy   string     `json:"startedBy,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	OutputPath  string     `json:"outputPath,omitempty"`
}

// StoppedSession is what a successful stop reports. OutputPath is empty when the
// session was stopped by id and was not tracked.
type StoppedSession struct {
	Room       string `json:"room,omitempty"`
	SessionID  string `json:"sessionId"`
	OutputPath string `json:"outputPath,omitempty"`
}

func NewSession(room, identity, sessionID, outputPath string, startedAt time.Time) *Session {
	if identity == "" {
		identity = UnknownIdentity
	}
	return &Session{
		Room:       room,
		SessionID:  sessionID,
		StartedBy:  identity,
		StartedAt:  startedAt,
		OutputPath: outputPath,
	}
}

func (s *Session) ToStatus() *Status {
	if s == nil {
		return &Status{}
	}
	startedAt := s.StartedAt
	return &Status{
		IsRecording: true,
		SessionID:   s.SessionID,
		StartedBy:   s.StartedBy,
		StartedAt:   &startedAt,
		OutputPath:  s.OutputPath,
	}
}

// OutputPath returns the blob path a recording of room started at startedAt is
// written to.
func OutputPath(prefix, room string, startedAt time.Time) string {
	if prefix == "" {
		prefix = DefaultFilePrefix
	}
	return path.Join(prefix, sanitize(room), startedAt.UTC().Format(pathTimeFormat)+FileExtension)
}

func sanitize(room string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	s := r.Replace(strings.TrimSpace(room))
	if s == "" {
		return "_"
	}
	return s
}
