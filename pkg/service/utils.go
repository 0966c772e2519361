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
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/livekit/protocol/logger"
	"github.com/livekit/psrpc"
)

const maxRequestBody = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Debugw("could not write response", "error", err)
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error, keysAndValues ...interface{}) {
	status := httpStatusFromError(err)
	keysAndValues = append(keysAndValues, "status", status)
	if r != nil && r.URL != nil {
		keysAndValues = append(keysAndValues, "method", r.Method, "path", r.URL.Path)
	}

	msg := err.Error()
	switch {
	case errors.Is(err, context.Canceled) || (r != nil && errors.Is(r.Context().Err(), context.Canceled)):
	case status >= http.StatusInternalServerError:
		var pe psrpc.Error
		if !errors.As(err, &pe) {
			// do not leak internals of unexpected failures
			msg = http.StatusText(http.StatusInternalServerError)
		}
		logger.GetLogger().WithCallDepth(1).Errorw("error handling request", err, keysAndValues...)
	default:
		logger.GetLogger().WithCallDepth(1).Warnw("error handling request", err, keysAndValues...)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// requestParams collects string parameters from the query, then a JSON or form body,
// with body values taking precedence.
func requestParams(r *http.Request) (map[string]string, error) {
	params := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return params, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		body := make(map[string]interface{})
		dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
		if err := dec.Decode(&body); err != nil {
			if errors.Is(err, io.EOF) {
				return params, nil
			}
			return nil, ErrInvalidRequestBody
		}
		for k, v := range body {
			if s, ok := v.(string); ok {
				params[k] = s
			}
		}
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)
		if err := r.ParseForm(); err != nil {
			return nil, ErrInvalidRequestBody
		}
		for k, v := range r.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
	}

	for k, v := range params {
		params[k] = strings.TrimSpace(v)
	}
	return params, nil
}
