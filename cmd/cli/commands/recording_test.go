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

package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livekit/recording-gateway/pkg/recording"
)

func TestRenderRecordings(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	var buf bytes.Buffer
	renderRecordings(&buf, []*recording.Session{
		recording.NewSession("standup", "alice", "EG_1", "recordings/standup/a.ogg", now.Add(-3*time.Minute)),
	}, now)

	out := buf.String()
	require.Contains(t, out, "standup")
	require.Contains(t, out, "EG_1")
	require.Contains(t, out, "3 minutes ago")
	require.Contains(t, out, "recordings/standup/a.ogg")
}

func TestGatewayClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":     "room is already being recorded",
			"sessionId": "EG_1",
			"startedBy": r.PostForm.Get("identity"),
		})
	}))
	defer srv.Close()

	g := &gatewayClient{host: srv.URL, token: "tkn", client: srv.Client()}
	err := g.call(http.MethodPost, "/api/recording", url.Values{"identity": {"alice"}}, &recording.Session{})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t, "room is already being recorded", apiErr.Message)
	require.Equal(t, "alice", apiErr.Body["startedBy"])
}
