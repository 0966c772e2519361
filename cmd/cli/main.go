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
	"os"

	"github.com/urfave/cli/v2"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/recording-gateway/cmd/cli/commands"
	"github.com/livekit/recording-gateway/version"
)

// command line util that drives a running gateway
func main() {
	logger.InitFromConfig(logger.Config{Level: "info"}, "recording-cli")
	if err := newApp().Run(os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := &cli.App{
		Name:    "recording-cli",
		Usage:   "issue tokens and control room recordings through a recording gateway",
		Version: version.Version,
	}

	app.Commands = append(app.Commands, commands.TokenCommands...)
	app.Commands = append(app.Commands, commands.RecordingCommands...)
	return app
}
