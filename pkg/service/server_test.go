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
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livekit/recording-gateway/pkg/service"
	"github.com/livekit/recording-gateway/pkg/testutils"
)

func freePort(t *testing.T) uint32 {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return uint32(port)
}

func TestServerStartStop(t *testing.T) {
	conf := newTestConfig(t)
	conf.Port = freePort(t)
	conf.BindAddresses = []string{"127.0.0.1"}

	server, err := service.InitializeServer(conf)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- server.Start()
	}()

	healthURL := fmt.Sprintf("http://127.0.0.1:%d/healthz", conf.Port)
	testutils.WithTimeout(t, func() string {
		resp, err := http.Get(healthURL)
		if err != nil {
			return err.Error()
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK || string(body) != "ok" {
			return fmt.Sprintf("unexpected response %d %s", resp.StatusCode, body)
		}
		return ""
	})
	require.True(t, server.IsRunning())
	require.Error(t, server.Start())

	server.Stop(true)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	require.False(t, server.IsRunning())
}
