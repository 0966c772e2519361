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

package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/twitchtv/twirp"

	"github.com/livekit/protocol/livekit"

	"github.com/livekit/recording-gateway/pkg/config"
	"github.com/livekit/recording-gateway/pkg/service"
	"github.com/livekit/recording-gateway/pkg/utils"
)

const (
	testAPIKey    = "APIgatewayTest"
	testAPISecret = "gateway-test-secret-gateway-test-secret"
	testAzureKey  = "azure-account-key-value"
)

const testConfig = `
api_key: ` + testAPIKey + `
api_secret: ` + testAPISecret + `
livekit_url: wss://lk.example.com
recording:
  azure:
    account_name: acct
    account_key: ` + testAzureKey + `
    container_name: calls
`

func newTestConfig(t *testing.T) *config.Config {
	conf, err := config.NewConfig(testConfig, true, nil, nil)
	require.NoError(t, err)
	require.NoError(t, conf.ResolveKeys())
	return conf
}

// fakeEgress fails calls on a done context like a real transport would.
type fakeEgress struct {
	mu       sync.Mutex
	starts   []*livekit.RoomCompositeEgressRequest
	stops    []string
	startErr error
	stopErr  error
	delay    time.Duration

	// called before the request is handled
	onStart func()
	onStop  func()
}

func (f *fakeEgress) StartRoomCompositeEgress(ctx context.Context, req *livekit.RoomCompositeEgressRequest) (*livekit.EgressInfo, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.onStart != nil {
		f.onStart()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.starts = append(f.starts, req)
	return &livekit.EgressInfo{
		EgressId: fmt.Sprintf("EG_%d", len(f.starts)),
		RoomName: req.RoomName,
		Status:   livekit.EgressStatus_EGRESS_STARTING,
	}, nil
}

func (f *fakeEgress) StopEgress(ctx context.Context, egressID string) (*livekit.EgressInfo, error) {
	if f.onStop != nil {
		f.onStop()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	f.stops = append(f.stops, egressID)
	return &livekit.EgressInfo{EgressId: egressID, Status: livekit.EgressStatus_EGRESS_ENDING}, nil
}

func (f *fakeEgress) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.starts)
}

func (f *fakeEgress) stopped() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stops...)
}

var errUpstream = twirp.NewError(twirp.Unavailable, "egress workers busy")

type storeFactory func(t *testing.T) service.SessionStore

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"local": func(t *testing.T) service.SessionStore {
			return service.NewLocalSessionStore()
		},
		"redis": func(t *testing.T) service.SessionStore {
			mr := miniredis.RunT(t)
			rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() {
				_ = rc.Close()
			})
			return service.NewRedisSessionStore(rc)
		},
	}
}

func newRecordingService(t *testing.T, conf *config.Config, store service.SessionStore) (*service.RecordingService, *fakeEgress) {
	if conf == nil {
		conf = newTestConfig(t)
	}
	if store == nil {
		store = service.NewLocalSessionStore()
	}
	ec := &fakeEgress{}
	return service.NewRecordingService(conf, store, ec, utils.NewRoomLocker()), ec
}
