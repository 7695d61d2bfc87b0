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

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/enrich/core"
)

// runStateVersion prefixes every encoded RunState.
const runStateVersion uint64 = 1

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

func timeMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromMicros(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

func runStateCounters(s *core.RunState) []int64 {
	return []int64{
		int64(s.Cursor), int64(s.Total),
		int64(s.Succeeded), int64(s.Failed), int64(s.Skipped),
		timeMicros(s.StartedAt), timeMicros(s.UpdatedAt),
	}
}

// MarshalRunState serializes a RunState to bytes.
func MarshalRunState(state *core.RunState) []byte {
	strs := []string{string(state.Mode), state.Input, state.Output}
	nums := runStateCounters(state)

	size := varint.Uint64.Size(runStateVersion) + varint.Uint64.Size(uint64(state.Id))
	for _, s := range strs {
		size += ord.String.Size(s)
	}
	for _, n := range nums {
		size += varint.Int64.Size(n)
	}

	buf := make([]byte, size)
	offset := varint.Uint64.Marshal(runStateVersion, buf)
	offset += varint.Uint64.Marshal(uint64(state.Id), buf[offset:])
	for _, s := range strs {
		offset += ord.String.Marshal(s, buf[offset:])
	}
	for _, n := range nums {
		offset += varint.Int64.Marshal(n, buf[offset:])
	}
	return buf[:offset]
}

// UnmarshalRunState deserializes a RunState from bytes.
func UnmarshalRunState(data []byte) (*core.RunState, error) {
	offset := 0

	version, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: version: %w", ErrTruncatedData, err)
	}
	if version != runStateVersion {
		return nil, fmt.Errorf("%w: unsupported run state version %d", ErrSerializationFailed, version)
	}
	offset += n

	id, n, err := varint.Uint64.Unmarshal(data[offset:])
	if err != nil {
		return nil, fmt.Errorf("%w: id: %w", ErrTruncatedData, err)
	}
	offset += n

	var strs [3]string
	for i := range strs {
		strs[i], n, err = ord.String.Unmarshal(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("%w: field %d: %w", ErrTruncatedData, i, err)
		}
		offset += n
	}

	var nums [7]int64
	for i := range nums {
		nums[i], n, err = varint.Int64.Unmarshal(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("%w: counter %d: %w", ErrTruncatedData, i, err)
		}
		offset += n
	}

	return &core.RunState{
		Id:        core.ID(id),
		Mode:      core.Mode(strs[0]),
		Input:     strs[1],
		Output:    strs[2],
		Cursor:    int(nums[0]),
		Total:     int(nums[1]),
		Succeeded: int(nums[2]),
		Failed:    int(nums[3]),
		Skipped:   int(nums[4]),
		StartedAt: fromMicros(nums[5]),
		UpdatedAt: fromMicros(nums[6]),
	}, nil
}
