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
	"errors"
	"time"

	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/logger"

	"github.com/livekit/recording-gateway/pkg/config"
	"github.com/livekit/recording-gateway/pkg/egress"
	"github.com/livekit/recording-gateway/pkg/recording"
	"github.com/livekit/recording-gateway/pkg/telemetry/prometheus"
	"github.com/livekit/recording-gateway/pkg/utils"
)

// RecordingService tracks which rooms are being recorded and drives the egress API.
// Every operation on a room runs under that room's lock, so the check for an active
// session and the egress call that follows cannot interleave with another request.
type RecordingService struct {
	conf   *config.Config
	store  SessionStore
	egress egress.Client
	locker *utils.RoomLocker
}

func NewRecordingService(conf *config.Config, store SessionStore, ec egress.Client, locker *utils.RoomLocker) *RecordingService {
	return &RecordingService{
		conf:   conf,
		store:  store,
		egress: ec,
		locker: locker,
	}
}

// StartRecording begins an audio recording of room. When the room is already being
// recorded the existing session is returned along with ErrAlreadyRecording.
func (s *RecordingService) StartRecording(ctx context.Context, room, identity string) (*recording.Session, error) {
	if room == "" {
		return nil, ErrNoRoomName
	}
	if err := s.conf.RecordingConfigured(); err != nil {
		return nil, configurationError(err)
	}

	unlock := s.locker.Lock(room)
	defer unlock()

	existing, err := s.store.LoadSession(ctx, room)
	switch {
	case err == nil:
		prometheus.RecordingRejected("start", "conflict")
		return existing, ErrAlreadyRecording
	case !errors.Is(err, ErrRecordingNotFound):
		return nil, err
	}

	startedAt := time.Now()
	outputPath := recording.OutputPath(s.conf.Recording.FilePrefix, room, startedAt)
	azure := s.conf.Recording.Azure
	req := egress.NewAudioFileRequest(room, outputPath, &livekit.AzureBlobUpload{
		AccountName:   azure.AccountName,
		AccountKey:    azure.AccountKey,
		ContainerName: azure.ContainerName,
	})

	// once the egress may be running it has to be tracked or stopped, even if the
	// caller goes away
	ctx = context.WithoutCancel(ctx)
	info, err := s.egress.StartRoomCompositeEgress(ctx, req)
	prometheus.RecordEgressLatency("StartRoomCompositeEgress", time.Since(startedAt))
	if err == nil && info.GetEgressId() == "" {
		err = errors.New("no egress id in response")
	}
	if err != nil {
		prometheus.RecordingFailed("start")
		logger.Warnw("could not start recording", err, "room", room)
		return nil, recordingServiceError(err)
	}

	session := recording.NewSession(room, identity, info.EgressId, outputPath, startedAt)
	existing, err = s.store.StoreSessionIfAbsent(ctx, session)
	if err != nil || existing != nil {
		// the egress is running but untracked, or another gateway won the room
		s.abandonEgress(ctx, room, info.EgressId)
		if err != nil {
			logger.Errorw("could not store recording session", err, "room", room, "sessionID", info.EgressId)
			return nil, err
		}
		prometheus.RecordingRejected("start", "conflict")
		return existing, ErrAlreadyRecording
	}

	prometheus.RecordingStarted()
	logger.Infow("recording started",
		"room", room,
		"sessionID", session.SessionID,
		"startedBy", session.StartedBy,
		"outputPath", session.OutputPath,
	)
	return session, nil
}

func (s *RecordingService) abandonEgress(ctx context.Context, room, egressID string) {
	if _, err := s.egress.StopEgress(ctx, egressID); err != nil {
		logger.Warnw("could not stop abandoned egress", err, "room", room, "sessionID", egressID)
	}
}

// StopRecording ends the recording of room, or the egress sessionID when room is not
// being recorded. A session tracked for room takes precedence over sessionID, and a
// session tracked under sessionID is removed whichever room was given.
func (s *RecordingService) StopRecording(ctx context.Context, room, sessionID string) (*recording.StoppedSession, error) {
	if room == "" && sessionID == "" {
		return nil, ErrNoRoomOrSession
	}
	if err := s.conf.RecordingConfigured(); err != nil {
		return nil, configurationError(err)
	}

	session, unlock, err := s.lockSession(ctx, room, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	stopped := &recording.StoppedSession{SessionID: sessionID}
	if session != nil {
		stopped.Room = session.Room
		stopped.SessionID = session.SessionID
		stopped.OutputPath = session.OutputPath
	}
	if stopped.SessionID == "" {
		prometheus.RecordingRejected("stop", "not_found")
		return nil, ErrRecordingNotFound
	}

	// a stopped egress must not stay tracked because the caller went away
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	_, err = s.egress.StopEgress(ctx, stopped.SessionID)
	prometheus.RecordEgressLatency("StopEgress", time.Since(start))
	if err != nil {
		prometheus.RecordingFailed("stop")
		logger.Warnw("could not stop recording", err, "room", stopped.Room, "sessionID", stopped.SessionID)
		return nil, recordingServiceError(err)
	}

	var startedAt time.Time
	if session != nil {
		startedAt = session.StartedAt
		if _, err := s.store.DeleteSession(ctx, session.Room, session.SessionID); err != nil {
			logger.Errorw("could not delete recording session", err, "room", session.Room, "sessionID", session.SessionID)
			return nil, err
		}
	}
	prometheus.RecordingStopped(startedAt)
	logger.Infow("recording stopped",
		"room", stopped.Room,
		"sessionID", stopped.SessionID,
		"outputPath", stopped.OutputPath,
	)
	return stopped, nil
}

// lockSession finds the session a stop refers to and locks its room. The session is
// nil when nothing is tracked for room or sessionID. unlock is valid when err is nil.
func (s *RecordingService) lockSession(ctx context.Context, room, sessionID string) (*recording.Session, func(), error) {
	if room != "" {
		unlock := s.locker.Lock(room)
		session, err := s.trackedSession(ctx, room, "")
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if session != nil || sessionID == "" {
			return session, unlock, nil
		}
		// room is idle, sessionID may still be tracked under another room
		unlock()
	}

	byID, err := s.store.LoadSessionByID(ctx, sessionID)
	switch {
	case errors.Is(err, ErrRecordingNotFound):
		return nil, func() {}, nil
	case err != nil:
		return nil, nil, err
	}

	unlock := s.locker.Lock(byID.Room)
	session, err := s.trackedSession(ctx, byID.Room, sessionID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return session, unlock, nil
}

// trackedSession loads the session of room. With a sessionID, a session with another
// id counts as none.
func (s *RecordingService) trackedSession(ctx context.Context, room, sessionID string) (*recording.Session, error) {
	session, err := s.store.LoadSession(ctx, room)
	switch {
	case errors.Is(err, ErrRecordingNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	case sessionID != "" && session.SessionID != sessionID:
		// the room moved on to another session while we waited for the lock
		return nil, nil
	}
	return session, nil
}

// GetRecordingStatus reports whether room is being recorded. It never calls the
// egress API.
func (s *RecordingService) GetRecordingStatus(ctx context.Context, room string) (*recording.Status, error) {
	if room == "" {
		return nil, ErrNoRoomName
	}
	if err := s.conf.RecordingConfigured(); err != nil {
		return nil, configurationError(err)
	}

	session, err := s.store.LoadSession(ctx, room)
	switch {
	case err == nil:
		return session.ToStatus(), nil
	case errors.Is(err, ErrRecordingNotFound):
		return &recording.Status{}, nil
	default:
		return nil, err
	}
}

func (s *RecordingService) ListRecordings(ctx context.Context) ([]*recording.Session, error) {
	return s.store.ListSessions(ctx)
}
