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

package egress_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twitchtv/twirp"
	"google.golang.org/protobuf/proto"

	"github.com/livekit/protocol/livekit"

	"github.com/livekit/recording-gateway/pkg/auth"
	"github.com/livekit/recording-gateway/pkg/egress"
)

const (
	apiKey    = "APIegressTest"
	apiSecret = "egress-test-secret-egress-test-secret"
)

// egressService implements the two calls the gateway makes. Anything else panics on
// the embedded nil interface.
type egressService struct {
	livekit.Egress

	mu      sync.Mutex
	starts  []*livekit.RoomCompositeEgressRequest
	stops   []string
	tokens  []string
	stopErr error
}

func (s *egressService) StartRoomCompositeEgress(_ context.Context, req *livekit.RoomCompositeEgressRequest) (*livekit.EgressInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts = append(s.starts, req)
	return &livekit.EgressInfo{
		EgressId: "EG_abc",
		RoomId:   "RM_1",
		RoomName: req.RoomName,
		Status:   livekit.EgressStatus_EGRESS_STARTING,
	}, nil
}

func (s *egressService) StopEgress(_ context.Context, req *livekit.StopEgressRequest) (*livekit.EgressInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopErr != nil {
		return nil, s.stopErr
	}
	s.stops = append(s.stops, req.EgressId)
	return &livekit.EgressInfo{
		EgressId: req.EgressId,
		Status:   livekit.EgressStatus_EGRESS_ENDING,
	}, nil
}

func newEgressServer(t *testing.T) (*httptest.Server, *egressService) {
	svc := &egressService{}
	handler := livekit.NewEgressServer(svc)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		svc.mu.Lock()
		svc.tokens = append(svc.tokens, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		svc.mu.Unlock()
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, svc
}

func newClient(url string) *egress.TwirpClient {
	return egress.NewTwirpClient(url, auth.NewAPIKeyTokenIssuer(apiKey, apiSecret), 5*time.Second)
}

func TestStartRoomCompositeEgress(t *testing.T) {
	srv, svc := newEgressServer(t)

	req := egress.NewAudioFileRequest(
		"standup", "recordings/standup/20240309-140507.123.ogg",
		&livekit.AzureBlobUpload{AccountName: "acct", AccountKey: "key", ContainerName: "calls"},
	)
	info, err := newClient(srv.URL).StartRoomCompositeEgress(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "EG_abc", info.EgressId)
	require.Equal(t, livekit.EgressStatus_EGRESS_STARTING, info.Status)

	require.Len(t, svc.starts, 1)
	received := svc.starts[0]
	require.True(t, proto.Equal(req, received))
	require.True(t, received.AudioOnly)

	outputs := received.GetFileOutputs()
	require.Len(t, outputs, 1)
	require.Equal(t, livekit.EncodedFileType_OGG, outputs[0].FileType)
	require.Equal(t, "recordings/standup/20240309-140507.123.ogg", outputs[0].Filepath)
	require.Equal(t, "calls", outputs[0].GetAzure().ContainerName)

	require.Len(t, svc.tokens, 1)
	v, err := auth.ParseAPIToken(svc.tokens[0])
	require.NoError(t, err)
	require.Equal(t, apiKey, v.APIKey())
	grants, err := v.Verify(apiSecret)
	require.NoError(t, err)
	require.True(t, grants.Video.RoomRecord)
}

func TestStopEgress(t *testing.T) {
	srv, svc := newEgressServer(t)

	info, err := newClient(srv.URL).StopEgress(context.Background(), "EG_abc")
	require.NoError(t, err)
	require.Equal(t, livekit.EgressStatus_EGRESS_ENDING, info.Status)
	require.Equal(t, []string{"EG_abc"}, svc.stops)
}

func TestTwirpErrors(t *testing.T) {
	t.Run("twirp error", func(t *testing.T) {
		srv, svc := newEgressServer(t)
		svc.stopErr = twirp.NotFoundError("egress not found").WithMeta("egress_id", "EG_x")

		_, err := newClient(srv.URL).StopEgress(context.Background(), "EG_x")
		var twerr twirp.Error
		require.True(t, errors.As(err, &twerr))
		require.Equal(t, twirp.NotFound, twerr.Code())
		require.Equal(t, "egress not found", twerr.Msg())
		require.Equal(t, "EG_x", twerr.Meta("egress_id"))
	})

	t.Run("intermediary", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("upstream overloaded"))
		}))
		t.Cleanup(srv.Close)

		_, err := newClient(srv.URL).StopEgress(context.Background(), "EG_x")
		var twerr twirp.Error
		require.True(t, errors.As(err, &twerr))
		require.Equal(t, twirp.Unavailable, twerr.Code())
		require.Equal(t, "upstream overloaded", twerr.Meta("body"))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := newClient(url).StopEgress(context.Background(), "EG_x")
		var twerr twirp.Error
		require.True(t, errors.As(err, &twerr))
		require.Equal(t, twirp.Internal, twerr.Code())
		require.Contains(t, twerr.Msg(), "failed to do request")
	})

	t.Run("missing keys", func(t *testing.T) {
		srv, svc := newEgressServer(t)
		client := egress.NewTwirpClient(srv.URL, auth.NewAPIKeyTokenIssuer("", ""), time.Second)
		_, err := client.StopEgress(context.Background(), "EG_x")
		require.ErrorIs(t, err, auth.ErrKeysMissing)
		require.Empty(t, svc.tokens)
	})
}
