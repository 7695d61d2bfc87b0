// Copyright 2025 Poiesic Systems
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

package badger

import (
	"encoding/binary"

	"github.com/poiesic/enrich/core"
)

const (
	runStatePrefix = "runst:"
)

// makeRunKey generates a key for a run by ID.
// Format: prefix + 8 bytes BigEndian ID
func makeRunKey(id core.ID) []byte {
	buf := make([]byte, len(runStatePrefix)+8)
	offset := copy(buf, runStatePrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
