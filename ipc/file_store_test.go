package ipc_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/ipc"
)

func TestFileStoreCreateSaveLoadRoundTrip(t *testing.T) {
	store := ipc.NewFileStore()
	defer store.DestroyAll()

	frame, err := store.CreateEmpty(16)
	require.NoError(t, err)
	copy(frame.Buf, []byte("0123456789abcdef"))
	require.NoError(t, store.Save(frame))

	loaded, err := store.Load(frame.ID)
	require.NoError(t, err)
	require.Equal(t, []byte("0123456789abcdef"), loaded.Buf)
}

func TestFileStoreSavePersistsBeforeLoadFromFreshHandle(t *testing.T) {
	store := ipc.NewFileStore()
	other := ipc.NewFileStore()
	defer store.DestroyAll()

	frame, err := store.CreateEmpty(8)
	require.NoError(t, err)
	copy(frame.Buf, []byte("saved!!!"))
	require.NoError(t, store.Save(frame))

	loaded, err := other.Load(frame.ID)
	require.NoError(t, err)
	require.Equal(t, []byte("saved!!!"), loaded.Buf)
}

func TestFileStoreDestroyRemovesFile(t *testing.T) {
	store := ipc.NewFileStore()

	frame, err := store.CreateEmpty(4)
	require.NoError(t, err)
	require.NoError(t, store.Save(frame))

	path := frame.ID
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)

	require.NoError(t, store.Destroy(frame))
	_, statErr = os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestFileStoreMemoryUsage(t *testing.T) {
	store := ipc.NewFileStore()
	defer store.DestroyAll()

	_, err := store.CreateEmpty(100)
	require.NoError(t, err)
	_, err = store.CreateEmpty(200)
	require.NoError(t, err)

	require.Equal(t, 300, store.MemoryUsage())
}

func TestFileStoreReleaseAllKeepsFiles(t *testing.T) {
	store := ipc.NewFileStore()

	f1, err := store.CreateEmpty(8)
	require.NoError(t, err)
	f2, err := store.CreateEmpty(8)
	require.NoError(t, err)

	require.NoError(t, store.ReleaseAll())

	_, statErr := os.Stat(f1.ID)
	require.NoError(t, statErr)
	_, statErr = os.Stat(f2.ID)
	require.NoError(t, statErr)

	require.NoError(t, os.Remove(f1.ID))
	require.NoError(t, os.Remove(f2.ID))
}
