// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package zarchive

import "golang.org/x/sync/errgroup"

// SerializeParallel serializes each of values into its own archive buffer
// concurrently, one goroutine per value (spec §5: "a single archive's
// serialization may fan its subgraph out across goroutines"). Independent
// roots share nothing, so each gets its own Scope and sharing registry
// rather than coordinating over one: this is the simplest useful case of
// that concurrency model, for a caller holding many unrelated values that
// all need archiving.
//
// It returns one buffer per input value, in the same order as values, or
// the first error any of them returned.
func SerializeParallel[A, S any, T RootSerialize[A, S]](values []T) ([][]byte, error) {
	out := make([][]byte, len(values))
	var g errgroup.Group
	for i, v := range values {
		g.Go(func() error {
			buf, err := ToBytes[A, S](v)
			if err != nil {
				return err
			}
			out[i] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
