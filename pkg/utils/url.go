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

package utils

import (
	"strings"
)

// ToHttpURL turns a ws(s) server url into the matching http(s) one. Other urls are
// returned as is.
func ToHttpURL(url string) string {
	url = strings.TrimSuffix(url, "/")
	if strings.HasPrefix(url, "ws") {
		return strings.Replace(url, "ws", "http", 1)
	}
	return url
}

// ToWebSocketURL is the inverse of ToHttpURL, used for the url handed to clients.
func ToWebSocketURL(url string) string {
	url = strings.TrimSuffix(url, "/")
	if strings.HasPrefix(url, "http") {
		return strings.Replace(url, "http", "ws", 1)
	}
	return url
}
