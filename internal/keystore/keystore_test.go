package keystore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestNewStore(t *testing.T) {
	t.Run("creates directory with correct permissions", func(t *testing.T) {
		tmpDir := t.TempDir()
		dir := filepath.Join(tmpDir, "keystore")

		store, err := NewStore(dir)
		require.NoError(t, err)
		assert.NotNil(t, store)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	})
}

func TestStore_SaveLoad(t *testing.T) {
	t.Run("round-trips a struct record", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		in := record{Name: "tokens", Count: 3}
		require.NoError(t, store.Save("rec", in))

		var out record
		require.NoError(t, store.Load("rec", &out))
		assert.Equal(t, in, out)
	})

	t.Run("round-trips a plain string record", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, store.Save("activeGroup", "group-42"))

		var out string
		require.NoError(t, store.Load("activeGroup", &out))
		assert.Equal(t, "group-42", out)
	})

	t.Run("overwrites an existing record", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, store.Save("rec", record{Name: "old"}))
		require.NoError(t, store.Save("rec", record{Name: "new"}))

		var out record
		require.NoError(t, store.Load("rec", &out))
		assert.Equal(t, "new", out.Name)
	})

	t.Run("missing record is ErrNotFound", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		var out record
		err = store.Load("missing", &out)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("corrupt record is ErrCorruptRecord, not ErrNotFound", func(t *testing.T) {
		tmpDir := t.TempDir()
		store, err := NewStore(tmpDir)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "bad.json"), []byte("{not json"), 0600))

		var out record
		err = store.Load("bad", &out)
		assert.ErrorIs(t, err, ErrCorruptRecord)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("record files are written 0600", func(t *testing.T) {
		tmpDir := t.TempDir()
		store, err := NewStore(tmpDir)
		require.NoError(t, err)

		require.NoError(t, store.Save("rec", record{Name: "x"}))

		info, err := os.Stat(filepath.Join(tmpDir, "rec.json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("rejects keys with path separators", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		assert.ErrorIs(t, store.Save("../escape", record{}), ErrInvalidKey)
		assert.ErrorIs(t, store.Load("a/b", &record{}), ErrInvalidKey)
	})
}

func TestStore_Delete(t *testing.T) {
	t.Run("delete then load returns ErrNotFound", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, store.Save("rec", record{Name: "x"}))
		require.NoError(t, store.Delete("rec"))

		var out record
		assert.ErrorIs(t, store.Load("rec", &out), ErrNotFound)
	})

	t.Run("deleting an absent key is a no-op", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		assert.NoError(t, store.Delete("never-existed"))
	})
}

func TestStore_CacheConsistency(t *testing.T) {
	t.Run("cached reads see the latest save", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, store.Save("rec", record{Count: 1}))

		var first record
		require.NoError(t, store.Load("rec", &first))

		require.NoError(t, store.Save("rec", record{Count: 2}))

		var second record
		require.NoError(t, store.Load("rec", &second))
		assert.Equal(t, 2, second.Count)
	})

	t.Run("a second store sees records written by the first", func(t *testing.T) {
		tmpDir := t.TempDir()

		first, err := NewStore(tmpDir)
		require.NoError(t, err)
		require.NoError(t, first.Save("rec", record{Name: "shared"}))

		second, err := NewStore(tmpDir)
		require.NoError(t, err)

		var out record
		require.NoError(t, second.Load("rec", &out))
		assert.Equal(t, "shared", out.Name)
	})
}
