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
	"sync"
)

// RoomLocker hands out one mutex per room. Entries are dropped once no goroutine
// holds or waits on them.
type RoomLocker struct {
	mu    sync.Mutex
	rooms map[string]*roomLock
}

type roomLock struct {
	sync.Mutex
	refs int
}

func NewRoomLocker() *RoomLocker {
	return &RoomLocker{
		rooms: make(map[string]*roomLock),
	}
}

// Lock blocks until room is free and returns the function releasing it.
func (l *RoomLocker) Lock(room string) func() {
	l.mu.Lock()
	rl, ok := l.rooms[room]
	if !ok {
		rl = &roomLock{}
		l.rooms[room] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			rl.Unlock()

			l.mu.Lock()
			rl.refs--
			if rl.refs == 0 {
				delete(l.rooms, room)
			}
			l.mu.Unlock()
		})
	}
}

// Len is the number of rooms currently locked or waited on.
func (l *RoomLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}
