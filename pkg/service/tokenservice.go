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
	"time"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/recording-gateway/pkg/auth"
	"github.com/livekit/recording-gateway/pkg/config"
	"github.com/livekit/recording-gateway/pkg/telemetry/prometheus"
)

type TokenResponse struct {
	Token    string `json:"token"`
	Identity string `json:"identity"`
	Room     string `json:"room"`
	URL      string `json:"url,omitempty"`
}

type TokenService struct {
	conf *config.Config
}

func NewTokenService(conf *config.Config) *TokenService {
	return &TokenService{
		conf: conf,
	}
}

// CreateToken issues a join token for identity in room, valid from now.
func (s *TokenService) CreateToken(identity, room string, now time.Time) (*TokenResponse, error) {
	if identity == "" || room == "" {
		prometheus.TokenFailed("invalid_argument")
		return nil, ErrIdentityEmpty
	}
	if err := s.conf.SigningConfigured(); err != nil {
		prometheus.TokenFailed("not_configured")
		return nil, configurationError(err)
	}

	issuer := auth.NewAPIKeyTokenIssuer(s.conf.APIKey, s.conf.APISecret)
	token, err := issuer.CreateJoinToken(identity, room, now)
	if err != nil {
		prometheus.TokenFailed("error")
		return nil, err
	}

	prometheus.TokenIssued()
	logger.Debugw("issued join token", "identity", identity, "room", room)
	return &TokenResponse{
		Token:    token,
		Identity: identity,
		Room:     room,
		URL:      s.conf.ClientURL(),
	}, nil
}
