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

package auth

import (
	"time"
)

const (
	serviceTokenValidDuration = 10 * time.Minute
)

// APIKeyTokenIssuer mints room join tokens and short lived service tokens for a single
// API key and secret pair.
type APIKeyTokenIssuer struct {
	APIKey    string
	SecretKey string
}

func NewAPIKeyTokenIssuer(key string, secret string) *APIKeyTokenIssuer {
	return &APIKeyTokenIssuer{
		APIKey:    key,
		SecretKey: secret,
	}
}

// CreateJoinToken returns a token that lets identity join room with every capability.
// It expires exactly DefaultValidDuration after now.
func (s *APIKeyTokenIssuer) CreateJoinToken(identity, room string, now time.Time) (string, error) {
	if identity == "" {
		return "", ErrIdentityMissing
	}
	if room == "" {
		return "", ErrRoomMissing
	}
	if s.APIKey == "" || s.SecretKey == "" {
		return "", ErrKeysMissing
	}

	return NewAccessToken(s.APIKey, s.SecretKey).
		SetIdentity(identity).
		SetName(identity).
		AddGrant(NewJoinGrant(room)).
		SetValidFor(DefaultValidDuration).
		ToJWTAt(now)
}

// CreateServiceToken returns a token for server to server API calls.
func (s *APIKeyTokenIssuer) CreateServiceToken(grant *VideoGrant, now time.Time) (string, error) {
	return NewAccessToken(s.APIKey, s.SecretKey).
		AddGrant(grant).
		SetValidFor(serviceTokenValidDuration).
		ToJWTAt(now)
}
