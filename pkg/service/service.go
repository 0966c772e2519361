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
	"time"

	"github.com/google/wire"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/recording-gateway/pkg/auth"
	"github.com/livekit/recording-gateway/pkg/config"
	"github.com/livekit/recording-gateway/pkg/egress"
	"github.com/livekit/recording-gateway/pkg/utils"
)

const redisPingTimeout = 5 * time.Second

var ServiceSet = wire.NewSet(
	createRedisClient,
	createSessionStore,
	createEgressClient,
	createKeyProvider,
	utils.NewRoomLocker,
	NewTokenService,
	NewRecordingService,
	NewGatewayServer,
)

func createRedisClient(conf *config.Config) (redis.UniversalClient, error) {
	if conf.Redis.Address == "" {
		return nil, nil
	}

	logger.Infow("using redis session store", "address", conf.Redis.Address)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{conf.Redis.Address},
		Username: conf.Redis.Username,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, errors.Wrap(err, "unable to connect to redis")
	}
	return rc, nil
}

func createSessionStore(rc redis.UniversalClient) SessionStore {
	if rc == nil {
		return NewLocalSessionStore()
	}
	return NewRedisSessionStore(rc)
}

func createEgressClient(conf *config.Config) egress.Client {
	issuer := auth.NewAPIKeyTokenIssuer(conf.APIKey, conf.APISecret)
	return egress.NewTwirpClient(conf.APIURL(), issuer, conf.Recording.RequestTimeout)
}

func createKeyProvider(conf *config.Config) auth.KeyProvider {
	return conf.KeyProvider()
}
