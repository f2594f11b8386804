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


// Package search provides semantic search over stored candidates and projects.
//
// The Searcher type implements storage.VectorSearch on top of a
// RecordRepository. Queries are embedded, compared against stored vectors,
// filtered by attribute, and ordered by similarity with a small boost for
// records that contain every query word verbatim.
package search
