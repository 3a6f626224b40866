// Copyright 2025 The Mongoward Authors
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

package preflight

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPort(t *testing.T) {
	t.Run("free port passes", func(t *testing.T) {
		// Bind an ephemeral port to learn a number, release it, then probe it.
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := uint16(ln.Addr().(*net.TCPAddr).Port)
		require.NoError(t, ln.Close())

		assert.NoError(t, CheckPort(port))
	})

	t.Run("bound port reports ErrPortInUse", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()
		port := uint16(ln.Addr().(*net.TCPAddr).Port)

		err = CheckPort(port)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPortInUse)
	})

	t.Run("probe releases the port", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := uint16(ln.Addr().(*net.TCPAddr).Port)
		require.NoError(t, ln.Close())

		require.NoError(t, CheckPort(port))

		// The port must be bindable again right after the probe.
		ln2, err := net.Listen("tcp", ln.Addr().String())
		require.NoError(t, err)
		ln2.Close()
	})
}
