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

package egress

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/twitchtv/twirp"

	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/logger"

	"github.com/livekit/recording-gateway/pkg/auth"
)

const (
	authorization = "Authorization"
	bearerPrefix  = "Bearer "
)

type Client interface {
	StartRoomCompositeEgress(ctx context.Context, req *livekit.RoomCompositeEgressRequest) (*livekit.EgressInfo, error)
	StopEgress(ctx context.Context, egressID string) (*livekit.EgressInfo, error)
}

// TokenSource mints the bearer token sent with each call.
type TokenSource interface {
	CreateServiceToken(grant *auth.VideoGrant, now time.Time) (string, error)
}

// TwirpClient calls the Egress service of a LiveKit deployment. Every call carries a
// freshly minted service token with the roomRecord grant.
type TwirpClient struct {
	client livekit.Egress
	tokens TokenSource
}

// NewTwirpClient expects the http(s) url of the deployment.
func NewTwirpClient(url string, tokens TokenSource, timeout time.Duration) *TwirpClient {
	return &TwirpClient{
		client: livekit.NewEgressJSONClient(url, &http.Client{Timeout: timeout}),
		tokens: tokens,
	}
}

func (c *TwirpClient) StartRoomCompositeEgress(ctx context.Context, req *livekit.RoomCompositeEgressRequest) (*livekit.EgressInfo, error) {
	ctx, err := c.contextWithServiceToken(ctx)
	if err != nil {
		return nil, err
	}
	info, err := c.client.StartRoomCompositeEgress(ctx, req)
	if err != nil {
		logRequestError("StartRoomCompositeEgress", err)
		return nil, err
	}
	return info, nil
}

func (c *TwirpClient) StopEgress(ctx context.Context, egressID string) (*livekit.EgressInfo, error) {
	ctx, err := c.contextWithServiceToken(ctx)
	if err != nil {
		return nil, err
	}
	info, err := c.client.StopEgress(ctx, &livekit.StopEgressRequest{EgressId: egressID})
	if err != nil {
		logRequestError("StopEgress", err)
		return nil, err
	}
	return info, nil
}

func (c *TwirpClient) contextWithServiceToken(ctx context.Context) (context.Context, error) {
	token, err := c.tokens.CreateServiceToken(&auth.VideoGrant{RoomRecord: true}, time.Now())
	if err != nil {
		return nil, errors.Wrap(err, "could not create service token")
	}

	header := make(http.Header)
	header.Set(authorization, bearerPrefix+token)
	return twirp.WithHTTPRequestHeaders(ctx, header)
}

func logRequestError(method string, err error) {
	var twerr twirp.Error
	if errors.As(err, &twerr) {
		logger.Debugw("egress request failed", "method", method, "code", twerr.Code(), "msg", twerr.Msg())
	}
}

// NewAudioFileRequest builds a request recording the mixed audio of room into a single
// OGG file uploaded to Azure.
func NewAudioFileRequest(room, filepath string, azure *livekit.AzureBlobUpload) *livekit.RoomCompositeEgressRequest {
	return &livekit.RoomCompositeEgressRequest{
		RoomName:  room,
		AudioOnly: true,
		FileOutputs: []*livekit.EncodedFileOutput{{
			FileType: livekit.EncodedFileType_OGG,
			Filepath: filepath,
			Output: &livekit.EncodedFileOutput_Azure{
				Azure: azure,
			},
		}},
	}
}
