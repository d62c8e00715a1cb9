package examplestore

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	w, err := store.Open("creds.db", "w")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := store.Open("creds.db", "r")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, "hello", string(data))
}

func TestUnlinkRemovesFileAndIsIdempotent(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	w, err := store.Open("creds.db", "w")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, store.Unlink("creds.db"))
	require.NoError(t, store.Unlink("creds.db"))
}

func TestOpenRejectsUnsupportedMode(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = store.Open("creds.db", "x")
	require.Error(t, err)
}
