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
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/livekit/recording-gateway/pkg/auth"
)

var (
	TokenCommands = []*cli.Command{
		{
			Name:   "create-token",
			Usage:  "create a room join token, locally when api-key and api-secret are given, else through the gateway",
			Action: createToken,
			Flags: []cli.Flag{
				hostFlag,
				apiKeyFlag,
				secretFlag,
				&cli.StringFlag{
					Name:     "identity",
					Aliases:  []string{"p"},
					Usage:    "unique name of the participant",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "room",
					Aliases:  []string{"r"},
					Usage:    "name of the room to join",
					Required: true,
				},
			},
		},
	}
)

type tokenResponse struct {
	Token    string `json:"token"`
	Identity string `json:"identity"`
	Room     string `json:"room"`
	URL      string `json:"url"`
}

func createToken(c *cli.Context) error {
	identity := c.String("identity")
	room := c.String("room")

	if c.IsSet("api-key") || c.IsSet("api-secret") {
		if c.String("api-key") == "" || c.String("api-secret") == "" {
			return fmt.Errorf("api-key and api-secret are both required")
		}
		token, err := auth.NewAPIKeyTokenIssuer(c.String("api-key"), c.String("api-secret")).
			CreateJoinToken(identity, room, time.Now())
		if err != nil {
			return err
		}
		fmt.Println("access token: ", token)
		return nil
	}

	g, err := newGatewayClient(c)
	if err != nil {
		return err
	}
	res := &tokenResponse{}
	if err := g.call(http.MethodPost, "/api/token", url.Values{
		"identity": {identity},
		"room":     {room},
	}, res); err != nil {
		return err
	}

	fmt.Println("access token: ", res.Token)
	if res.URL != "" {
		fmt.Println("url: ", res.URL)
	}
	return nil
}
