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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/recording-gateway/pkg/config"
	"github.com/livekit/recording-gateway/pkg/service"
	"github.com/livekit/recording-gateway/version"
)

const (
	devAPIKey    = "devkey"
	devAPISecret = "secret"
)

var baseFlags = []cli.Flag{
	&cli.StringSliceFlag{
		Name:  "bind",
		Usage: "IP address to listen on, use flag multiple times to specify multiple addresses",
	},
	&cli.StringFlag{
		Name:  "config",
		Usage: "path to gateway config file",
	},
	&cli.StringFlag{
		Name:    "config-body",
		Usage:   "gateway config in YAML, typically passed in as an environment var in a container",
		EnvVars: []string{"GATEWAY_CONFIG"},
	},
	&cli.StringFlag{
		Name:  "key-file",
		Usage: "path to file that contains API keys/secrets",
	},
	&cli.StringFlag{
		Name:    "keys",
		Usage:   "api keys (key: secret\\n)",
		EnvVars: []string{"LIVEKIT_KEYS"},
	},
	&cli.StringFlag{
		Name:    "api-key",
		Usage:   "API key used to sign tokens and egress requests",
		EnvVars: []string{"LIVEKIT_API_KEY"},
	},
	&cli.StringFlag{
		Name:    "api-secret",
		Usage:   "API secret matching api-key",
		EnvVars: []string{"LIVEKIT_API_SECRET"},
	},
	&cli.StringFlag{
		Name:    "livekit-url",
		Usage:   "url of the LiveKit deployment",
		EnvVars: []string{"LIVEKIT_URL"},
	},
	&cli.StringFlag{
		Name:    "azure-account-name",
		Usage:   "Azure storage account recordings are uploaded to",
		EnvVars: []string{"AZURE_STORAGE_ACCOUNT_NAME"},
	},
	&cli.StringFlag{
		Name:    "azure-account-key",
		Usage:   "Azure storage account key",
		EnvVars: []string{"AZURE_STORAGE_ACCOUNT_KEY"},
	},
	&cli.StringFlag{
		Name:    "azure-container",
		Usage:   "Azure blob container recordings are uploaded to",
		EnvVars: []string{"AZURE_CONTAINER_NAME"},
	},
	&cli.StringFlag{
		Name:    "redis-host",
		Usage:   "host (incl. port) to redis server, sessions are kept in memory when unset",
		EnvVars: []string{"REDIS_HOST"},
	},
	&cli.StringFlag{
		Name:    "redis-password",
		Usage:   "password to redis",
		EnvVars: []string{"REDIS_PASSWORD"},
	},
	&cli.StringSliceFlag{
		Name:    "allowed-origin",
		Usage:   "origin allowed to call the API, use flag multiple times to specify multiple origins",
		EnvVars: []string{"GATEWAY_ALLOWED_ORIGINS"},
	},
	&cli.BoolFlag{
		Name:  "dev",
		Usage: "sets log-level to debug, loads .env and uses placeholder keys. insecure for production",
	},
	&cli.BoolFlag{
		Name:   "disable-strict-config",
		Usage:  "disables strict config parsing",
		Hidden: true,
	},
}

func main() {
	loadDotEnv(os.Args[1:])

	generatedFlags, err := config.GenerateCLIFlags(baseFlags, true)
	if err != nil {
		fmt.Println(err)
	}

	app := &cli.App{
		Name:        "recording-gateway",
		Usage:       "Token and recording control service for LiveKit rooms",
		Description: "run without subcommands to start the server",
		Flags:       append(baseFlags, generatedFlags...),
		Action:      startServer,
		Commands: []*cli.Command{
			{
				Name:   "generate-keys",
				Usage:  "generates an API key and secret pair",
				Action: generateKeys,
			},
			{
				Name:   "ports",
				Usage:  "print ports that server is configured to use",
				Action: printPorts,
			},
			{
				Name:   "create-join-token",
				Usage:  "create a room join token for development use",
				Action: createToken,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "room",
						Usage:    "name of room to join",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "identity",
						Usage:    "identity of participant that holds the token",
						Required: true,
					},
				},
			},
			{
				Name:   "help-verbose",
				Usage:  "prints app help, including all generated configuration flags",
				Action: helpVerbose,
			},
		},
		Version: version.Version,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadDotEnv reads .env into the environment in development, before flags pick up
// their env vars. Variables already set win.
func loadDotEnv(args []string) {
	if !slices.Contains(args, "--dev") && !strings.EqualFold(os.Getenv("GATEWAY_MODE"), "dev") {
		return
	}
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Println("could not load .env:", err)
	}
}

func getConfig(c *cli.Context) (*config.Config, error) {
	confString, err := getConfigString(c.String("config"), c.String("config-body"))
	if err != nil {
		return nil, err
	}

	strictMode := true
	if c.Bool("disable-strict-config") {
		strictMode = false
	}

	conf, err := config.NewConfig(confString, strictMode, c, baseFlags)
	if err != nil {
		return nil, err
	}
	config.InitLoggerFromConfig(&conf.Logging)

	if conf.Development {
		logger.Infow("starting in development mode")

		if len(conf.Keys) == 0 && conf.KeyFile == "" && conf.APIKey == "" && conf.APISecret == "" {
			logger.Infow("no keys provided, using placeholder keys",
				"API Key", devAPIKey,
				"API Secret", devAPISecret,
			)
			conf.Keys = map[string]string{
				devAPIKey: devAPISecret,
			}
			// when dev mode and using shared keys, we'll bind to localhost by default
			if conf.BindAddresses == nil {
				conf.BindAddresses = []string{
					"127.0.0.1",
					"::1",
				}
			}
		}
	}

	if err = conf.ResolveKeys(); err != nil {
		return nil, err
	}
	return conf, nil
}

func startServer(c *cli.Context) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}

	if err := conf.SigningConfigured(); err != nil {
		logger.Warnw("token issuing is not available", err)
	}
	if err := conf.RecordingConfigured(); err != nil {
		logger.Warnw("recording is not available", err)
	}

	server, err := service.InitializeServer(conf)
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-sigChan
		logger.Infow("exit requested, shutting down", "signal", sig)
		server.Stop(false)
	}()

	return server.Start()
}

func getConfigString(configFile string, inConfigBody string) (string, error) {
	if inConfigBody != "" || configFile == "" {
		return inConfigBody, nil
	}

	outConfigBody, err := os.ReadFile(configFile)
	if err != nil {
		return "", err
	}

	return string(outConfigBody), nil
}
