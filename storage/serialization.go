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

	"github.com/fxamacker/cbor/v2"

	"github.com/poiesic/talentmatch/core"
)

// encMode keeps sub-second precision on timestamps.
var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// MarshalRecord serializes a Record to bytes.
func MarshalRecord(record *Record) ([]byte, error) {
	data, err := encMode.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalRecord deserializes a Record from bytes.
func UnmarshalRecord(data []byte) (*Record, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	var record Record
	if err := cbor.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalMatches serializes a ranked result list to bytes.
func MarshalMatches(results []core.MatchResult) ([]byte, error) {
	data, err := encMode.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalMatches deserializes a ranked result list from bytes.
func UnmarshalMatches(data []byte) ([]core.MatchResult, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	var results []core.MatchResult
	if err := cbor.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return results, nil
}
