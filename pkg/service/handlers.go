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
	"errors"
	"net/http"
	"time"

	"github.com/livekit/recording-gateway/pkg/recording"
	"github.com/livekit/recording-gateway/pkg/telemetry/prometheus"
)

const (
	actionStart  = "start"
	actionStop   = "stop"
	actionStatus = "status"
)

type conflictResponse struct {
	Error     string `json:"error"`
	SessionID string `json:"sessionId"`
	StartedBy string `json:"startedBy"`
}

type listRecordingsResponse struct {
	Recordings []*recording.Session `json:"recordings"`
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	handleError(w, r, ErrMethodNotAllowed)
	return false
}

func observeOperation(op string, err error) {
	if err != nil {
		prometheus.ServiceOperationCounter.WithLabelValues(op, "error", errorType(err)).Inc()
		return
	}
	prometheus.ServiceOperationCounter.WithLabelValues(op, "success", "").Inc()
}

// ServeHTTP handles /api/token.
func (s *TokenService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	params, err := requestParams(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	res, err := s.CreateToken(params["identity"], params["room"], time.Now())
	observeOperation("create_token", err)
	if err != nil {
		handleError(w, r, err, "room", params["room"], "identity", params["identity"])
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ServeHTTP handles /api/recording?action=start|stop|status.
func (s *RecordingService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	params, err := requestParams(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	action := params["action"]
	room := params["room"]
	sessionID := params["sessionId"]

	switch action {
	case actionStart:
		if room != "" && !s.authorize(w, r, room) {
			return
		}
		session, err := s.StartRecording(r.Context(), room, params["identity"])
		observeOperation("recording_start", err)
		if errors.Is(err, ErrAlreadyRecording) && session != nil {
			writeJSON(w, http.StatusConflict, conflictResponse{
				Error:     err.Error(),
				SessionID: session.SessionID,
				StartedBy: session.StartedBy,
			})
			return
		}
		if err != nil {
			handleError(w, r, err, "room", room)
			return
		}
		writeJSON(w, http.StatusOK, session)

	case actionStop:
		if (room != "" || sessionID != "") && !s.authorize(w, r, room) {
			return
		}
		stopped, err := s.StopRecording(r.Context(), room, sessionID)
		observeOperation("recording_stop", err)
		if err != nil {
			handleError(w, r, err, "room", room, "sessionID", sessionID)
			return
		}
		writeJSON(w, http.StatusOK, stopped)

	case actionStatus:
		if room != "" && !s.authorize(w, r, room) {
			return
		}
		status, err := s.GetRecordingStatus(r.Context(), room)
		observeOperation("recording_status", err)
		if err != nil {
			handleError(w, r, err, "room", room)
			return
		}
		writeJSON(w, http.StatusOK, status)

	default:
		handleError(w, r, errUnknownAction(action))
	}
}

// ServeList handles /api/recordings.
func (s *RecordingService) ServeList(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	if s.conf.Recording.RequireToken {
		if err := EnsureListPermission(r.Context()); err != nil {
			handleError(w, r, err)
			return
		}
	}

	sessions, err := s.ListRecordings(r.Context())
	observeOperation("recording_list", err)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listRecordingsResponse{Recordings: sessions})
}

func (s *RecordingService) authorize(w http.ResponseWriter, r *http.Request, room string) bool {
	if !s.conf.Recording.RequireToken {
		return true
	}
	if err := EnsureRecordPermission(r.Context(), room); err != nil {
		handleError(w, r, err, "room", room)
		return false
	}
	return true
}
