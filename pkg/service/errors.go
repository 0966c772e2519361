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
	"errors"
	"net/http"

	"github.com/livekit/psrpc"
)

var (
	ErrIdentityEmpty             = psrpc.NewErrorf(psrpc.InvalidArgument, "identity and room are required")
	ErrNoRoomName                = psrpc.NewErrorf(psrpc.InvalidArgument, "room is required")
	ErrNoRoomOrSession           = psrpc.NewErrorf(psrpc.InvalidArgument, "room or sessionId is required")
	ErrInvalidRequestBody        = psrpc.NewErrorf(psrpc.InvalidArgument, "could not parse request body")
	ErrAlreadyRecording          = psrpc.NewErrorf(psrpc.AlreadyExists, "room is already being recorded")
	ErrRecordingNotFound         = psrpc.NewErrorf(psrpc.NotFound, "no active recording found")
	ErrPermissionDenied          = psrpc.NewErrorf(psrpc.PermissionDenied, "permissions denied")
	ErrMissingAuthorization      = psrpc.NewErrorf(psrpc.Unauthenticated, "invalid authorization header. Must start with "+bearerPrefix)
	ErrInvalidAuthorizationToken = psrpc.NewErrorf(psrpc.Unauthenticated, "invalid authorization token")
	ErrMethodNotAllowed          = errors.New("method not allowed")
)

func errUnknownAction(action string) error {
	return psrpc.NewErrorf(psrpc.InvalidArgument, "unknown action %q, expected start, stop or status", action)
}

// configurationError marks err as a server side setup problem. Its message must never
// contain secret values.
func configurationError(err error) error {
	return psrpc.NewError(psrpc.FailedPrecondition, err)
}

// recordingServiceError wraps a failure reported by the egress API.
func recordingServiceError(err error) error {
	return psrpc.NewErrorf(psrpc.Unavailable, "recording service error: %v", err)
}

// httpStatusFromError maps the error taxonomy of the gateway to response codes.
// Configuration and upstream failures are both server errors to the caller.
func httpStatusFromError(err error) int {
	if errors.Is(err, ErrMethodNotAllowed) {
		return http.StatusMethodNotAllowed
	}

	var pe psrpc.Error
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError
	}
	switch pe.Code() {
	case psrpc.InvalidArgument:
		return http.StatusBadRequest
	case psrpc.Unauthenticated:
		return http.StatusUnauthorized
	case psrpc.PermissionDenied:
		return http.StatusForbidden
	case psrpc.NotFound:
		return http.StatusNotFound
	case psrpc.AlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorType is a metrics label for err.
func errorType(err error) string {
	var pe psrpc.Error
	if errors.As(err, &pe) {
		return string(pe.Code())
	}
	return "internal"
}
