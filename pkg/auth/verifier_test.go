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

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livekit/recording-gateway/pkg/auth"
)

func TestAPIVerifier(t *testing.T) {
	raw := joinToken(t, "alice", "room-A")

	t.Run("exposes unverified issuer and identity", func(t *testing.T) {
		v, err := auth.ParseAPIToken(raw)
		require.NoError(t, err)
		require.Equal(t, testAPIKey, v.APIKey())
		require.Equal(t, "alice", v.Identity())
	})

	t.Run("cannot decode with incorrect key", func(t *testing.T) {
		v, err := auth.ParseAPIToken(raw)
		require.NoError(t, err)

		_, err = v.VerifyAt("", issuedAt)
		require.Equal(t, auth.ErrKeysMissing, err)

		_, err = v.VerifyAt("anothersecret", issuedAt)
		require.Error(t, err)
	})

	t.Run("token has expired", func(t *testing.T) {
		v, err := auth.ParseAPIToken(raw)
		require.NoError(t, err)

		_, err = v.VerifyAt(testSecret, issuedAt.Add(48*time.Hour))
		require.Error(t, err)
	})

	t.Run("token is not valid yet", func(t *testing.T) {
		v, err := auth.ParseAPIToken(raw)
		require.NoError(t, err)

		_, err = v.VerifyAt(testSecret, issuedAt.Add(-time.Hour))
		require.Error(t, err)
	})

	t.Run("unexpired token is verified", func(t *testing.T) {
		v, err := auth.ParseAPIToken(raw)
		require.NoError(t, err)

		grants, err := v.VerifyAt(testSecret, issuedAt.Add(time.Hour))
		require.NoError(t, err)
		require.Equal(t, "room-A", grants.Video.Room)
		require.True(t, grants.Video.GetCanPublish())
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := auth.ParseAPIToken("not.a.token")
		require.Error(t, err)
	})
}
