// SPDX-License-Identifier: MIT

// Integration coverage across the container formats, grounded on
// scigolib-hdf5's testify-based integration tests (the pack's only example
// of require-driven testing of a binary file format) rather than the
// teacher's bare testing style, since this file spans three packages at
// once rather than exercising one package's internals.
package lzma_test

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkiv-go/lzma"
	"github.com/arkiv-go/lzma/filter"
	"github.com/arkiv-go/lzma/lzip"
	"github.com/arkiv-go/lzma/xz"
)

// TestIntegration_AllThreeContainersAgreeOnTheSamePayload compresses one
// payload through raw LZMA1, lzip, and XZ and checks all three decode back
// to the original bytes, exercising the three C12-class container formats
// end to end in a single test rather than in isolation per package.
func TestIntegration_AllThreeContainersAgreeOnTheSamePayload(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	payload := make([]byte, 64*1024)
	rng.Read(payload)
	for i := 0; i+8 < len(payload); i += 97 {
		copy(payload[i:], payload[:8]) // sprinkle repetition so match coding has real work
	}

	t.Run("raw_lzma1", func(t *testing.T) {
		var buf bytes.Buffer
		w := lzma.NewRawWriter(&buf, lzma.PresetOptions(5, lzma.DictSizeMin))
		_, err := w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		got, err := io.ReadAll(lzma.NewRawReader(bytes.NewReader(buf.Bytes())))
		require.NoError(t, err)
		require.Equal(t, payload, got)
	})

	t.Run("lzip", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := lzip.NewWriter(&buf, lzip.DictSizeMin)
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		r, err := lzip.NewReader(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, payload, got)
		require.Equal(t, 1, r.MemberCount())
	})

	t.Run("xz_with_bcj_filter_chain", func(t *testing.T) {
		opts := xz.DefaultOptions(lzma.DictSizeMin)
		opts.Filters = []filter.ID{filter.IDBCJX86}

		var buf bytes.Buffer
		w, err := xz.NewWriter(&buf, opts)
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		r, err := xz.NewReader(bytes.NewReader(buf.Bytes()), lzma.DictSizeMin)
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, payload, got)
	})
}

// TestIntegration_XZWrappingLzipPayload compresses an already-lzip-packaged
// blob through XZ, confirming the two container formats compose (XZ treats
// the lzip stream as opaque bytes) and that unwrapping recovers the lzip
// stream bit-for-bit before unwrapping lzip itself.
func TestIntegration_XZWrappingLzipPayload(t *testing.T) {
	payload := bytes.Repeat([]byte("nested container payload "), 2000)

	var lzipBuf bytes.Buffer
	lw, err := lzip.NewWriter(&lzipBuf, lzip.DictSizeMin)
	require.NoError(t, err)
	_, err = lw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, lw.Close())

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf, xz.DefaultOptions(lzma.DictSizeMin))
	require.NoError(t, err)
	_, err = xw.Write(lzipBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, xw.Close())

	xr, err := xz.NewReader(bytes.NewReader(xzBuf.Bytes()), lzma.DictSizeMin)
	require.NoError(t, err)
	recoveredLzip, err := io.ReadAll(xr)
	require.NoError(t, err)
	require.Equal(t, lzipBuf.Bytes(), recoveredLzip)

	lr, err := lzip.NewReader(bytes.NewReader(recoveredLzip))
	require.NoError(t, err)
	got, err := io.ReadAll(lr)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}
