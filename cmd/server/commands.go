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

package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/livekit/recording-gateway/pkg/auth"
	"github.com/livekit/recording-gateway/pkg/config"
	"github.com/livekit/recording-gateway/pkg/utils"
)

func generateKeys(_ *cli.Context) error {
	apiKey := utils.NewGuid(utils.APIKeyPrefix)
	secret := utils.RandomSecret()
	fmt.Println("API Key: ", apiKey)
	fmt.Println("API Secret: ", secret)
	return nil
}

func printPorts(c *cli.Context) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}

	fmt.Println("TCP Ports")
	fmt.Printf("%d - HTTP API\n", conf.Port)
	if conf.PrometheusPort != 0 {
		fmt.Printf("%d - Prometheus metrics\n", conf.PrometheusPort)
	}
	return nil
}

func helpVerbose(c *cli.Context) error {
	generatedFlags, err := config.GenerateCLIFlags(baseFlags, false)
	if err != nil {
		return err
	}

	c.App.Flags = append(baseFlags, generatedFlags...)
	return cli.ShowAppHelp(c)
}

func createToken(c *cli.Context) error {
	room := c.String("room")
	identity := c.String("identity")

	conf, err := getConfig(c)
	if err != nil {
		return err
	}
	if err = conf.SigningConfigured(); err != nil {
		return err
	}

	token, err := auth.NewAPIKeyTokenIssuer(conf.APIKey, conf.APISecret).
		CreateJoinToken(identity, room, time.Now())
	if err != nil {
		return err
	}

	fmt.Println("Token:", token)
	if url := conf.ClientURL(); url != "" {
		fmt.Println("URL:", url)
	}
	return nil
}
