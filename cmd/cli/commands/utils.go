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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/livekit/recording-gateway/pkg/auth"
)

const requestTimeout = 45 * time.Second

var (
	hostFlag = &cli.StringFlag{
		Name:    "host",
		Usage:   "url of the recording gateway",
		Value:   "http://localhost:7880",
		EnvVars: []string{"GATEWAY_HOST"},
	}
	apiKeyFlag = &cli.StringFlag{
		Name:    "api-key",
		EnvVars: []string{"LIVEKIT_API_KEY"},
	}
	secretFlag = &cli.StringFlag{
		Name:    "api-secret",
		EnvVars: []string{"LIVEKIT_API_SECRET"},
	}
	tokenFlag = &cli.StringFlag{
		Name:    "token",
		Usage:   "bearer token sent to gateways that require one",
		EnvVars: []string{"GATEWAY_TOKEN"},
	}
	roomFlag = &cli.StringFlag{
		Name:    "room",
		Aliases: []string{"r"},
		Usage:   "name of the room",
	}
)

func PrintJSON(obj interface{}) {
	txt, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Println(string(txt))
}

// APIError is a non 2xx answer from the gateway.
type APIError struct {
	Status  int
	Message string
	Body    map[string]interface{}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

type gatewayClient struct {
	host   string
	token  string
	client *http.Client
}

func newGatewayClient(c *cli.Context) (*gatewayClient, error) {
	g := &gatewayClient{
		host:   strings.TrimSuffix(c.String("host"), "/"),
		token:  c.String("token"),
		client: &http.Client{Timeout: requestTimeout},
	}
	if g.token == "" && c.String("api-key") != "" && c.String("api-secret") != "" {
		// credentials are at hand, act as a service
		token, err := auth.NewAPIKeyTokenIssuer(c.String("api-key"), c.String("api-secret")).
			CreateServiceToken(&auth.VideoGrant{RoomRecord: true, RoomList: true}, time.Now())
		if err != nil {
			return nil, err
		}
		g.token = token
	}
	return g, nil
}

func (g *gatewayClient) call(method, path string, params url.Values, out interface{}) error {
	var body *strings.Reader
	target := g.host + path
	if method == http.MethodGet {
		if len(params) > 0 {
			target += "?" + params.Encode()
		}
		body = strings.NewReader("")
	} else {
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return err
	}
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "could not reach gateway")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr.Body); err == nil {
			if msg, ok := apiErr.Body["error"].(string); ok {
				apiErr.Message = msg
			}
		}
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
