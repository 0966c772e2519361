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
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livekit/protocol/livekit"

	"github.com/livekit/recording-gateway/pkg/config"
)

type stopOnlyEgress struct {
	livekit.Egress
	stopped []string
}

func (e *stopOnlyEgress) StopEgress(_ context.Context, req *livekit.StopEgressRequest) (*livekit.EgressInfo, error) {
	e.stopped = append(e.stopped, req.EgressId)
	return &livekit.EgressInfo{EgressId: req.EgressId, Status: livekit.EgressStatus_EGRESS_ENDING}, nil
}

func TestEgressClientUsesAPIURL(t *testing.T) {
	svc := &stopOnlyEgress{}
	srv := httptest.NewServer(livekit.NewEgressServer(svc))
	t.Cleanup(srv.Close)

	conf := config.DefaultConfig
	conf.APIKey = "APIinternal"
	conf.APISecret = "internal-test-secret-internal-test-secret"
	// configured as the websocket url clients use
	conf.LiveKitURL = strings.Replace(srv.URL, "http://", "ws://", 1)

	info, err := createEgressClient(&conf).StopEgress(context.Background(), "EG_1")
	require.NoError(t, err)
	require.Equal(t, "EG_1", info.EgressId)
	require.Equal(t, []string{"EG_1"}, svc.stopped)
}
