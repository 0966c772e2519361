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
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/livekit/recording-gateway/pkg/recording"
)

var (
	recordingFlags = []cli.Flag{hostFlag, tokenFlag, apiKeyFlag, secretFlag}

	RecordingCommands = []*cli.Command{
		{
			Name:   "start-recording",
			Usage:  "start an audio recording of a room",
			Action: startRecording,
			Flags: append([]cli.Flag{
				roomFlag,
				&cli.StringFlag{
					Name:    "identity",
					Aliases: []string{"p"},
					Usage:   "participant recorded as having started the recording",
				},
			}, recordingFlags...),
		},
		{
			Name:   "stop-recording",
			Usage:  "stop the recording of a room, or an egress by id",
			Action: stopRecording,
			Flags: append([]cli.Flag{
				roomFlag,
				&cli.StringFlag{
					Name:  "session-id",
					Usage: "egress id of the recording",
				},
			}, recordingFlags...),
		},
		{
			Name:   "recording-status",
			Usage:  "show whether a room is being recorded",
			Action: recordingStatus,
			Flags:  append([]cli.Flag{roomFlag}, recordingFlags...),
		},
		{
			Name:   "list-recordings",
			Usage:  "list active recordings",
			Action: listRecordings,
			Flags: append([]cli.Flag{
				&cli.BoolFlag{
					Name:  "json",
					Usage: "print raw json",
				},
			}, recordingFlags...),
		},
	}
)

type listRecordingsResponse struct {
	Recordings []*recording.Session `json:"recordings"`
}

func recordingAction(c *cli.Context, action string, params url.Values, out interface{}) error {
	g, err := newGatewayClient(c)
	if err != nil {
		return err
	}
	params.Set("action", action)
	return g.call(http.MethodPost, "/api/recording", params, out)
}

func startRecording(c *cli.Context) error {
	session := &recording.Session{}
	err := recordingAction(c, "start", url.Values{
		"room":     {c.String("room")},
		"identity": {c.String("identity")},
	}, session)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		fmt.Printf("room is already being recorded, session %v started by %v\n",
			apiErr.Body["sessionId"], apiErr.Body["startedBy"])
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println("recording started")
	PrintJSON(session)
	return nil
}

func stopRecording(c *cli.Context) error {
	stopped := &recording.StoppedSession{}
	if err := recordingAction(c, "stop", url.Values{
		"room":      {c.String("room")},
		"sessionId": {c.String("session-id")},
	}, stopped); err != nil {
		return err
	}

	fmt.Println("recording stopped")
	PrintJSON(stopped)
	return nil
}

func recordingStatus(c *cli.Context) error {
	status := &recording.Status{}
	if err := recordingAction(c, "status", url.Values{
		"room": {c.String("room")},
	}, status); err != nil {
		return err
	}

	PrintJSON(status)
	return nil
}

func listRecordings(c *cli.Context) error {
	g, err := newGatewayClient(c)
	if err != nil {
		return err
	}

	res := &listRecordingsResponse{}
	if err = g.call(http.MethodGet, "/api/recordings", nil, res); err != nil {
		return err
	}

	if c.Bool("json") {
		PrintJSON(res.Recordings)
		return nil
	}
	renderRecordings(os.Stdout, res.Recordings, time.Now())
	return nil
}

func renderRecordings(w io.Writer, sessions []*recording.Session, now time.Time) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Room", "Session ID", "Started By", "Started", "Output Path"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
	})

	for _, s := range sessions {
		table.Append([]string{
			s.Room,
			s.SessionID,
			s.StartedBy,
			humanize.RelTime(s.StartedAt, now, "ago", "from now"),
			s.OutputPath,
		})
	}
	table.Render()
}
