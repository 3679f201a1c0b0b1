package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lebensmittel/cli/internal/keystore"
	"github.com/lebensmittel/cli/internal/model"
)

func newTestManager(t *testing.T, handler http.Handler) (*Manager, *keystore.Store) {
	t.Helper()

	store, err := keystore.NewStore(t.TempDir())
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewManager(store, srv.URL, srv.Client()), store
}

func writeAuthResponse(t *testing.T, w http.ResponseWriter, access, refresh string, user *model.User) {
	t.Helper()

	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          user,
	}))
}

func TestManager_Login(t *testing.T) {
	user := &model.User{ID: uuid.NewString(), Username: "alice", DisplayName: "Alice"}

	t.Run("persists the user and token pair", func(t *testing.T) {
		access := mintTokenExpiring(t, time.Now().Add(time.Hour))
		mgr, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/login", r.URL.Path)

			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "alice", creds["username"])
			assert.Equal(t, "hunter2", creds["password"])

			writeAuthResponse(t, w, access, "refresh-1", user)
		}))

		got, tokens, err := mgr.Login(context.Background(), "alice", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, user, got)
		assert.Equal(t, access, tokens.AccessToken)
		assert.Equal(t, "refresh-1", tokens.RefreshToken)

		assert.True(t, mgr.IsAuthenticated())

		var stored Tokens
		require.NoError(t, store.Load(tokensKey, &stored))
		assert.Equal(t, access, stored.AccessToken)

		var storedUser model.User
		require.NoError(t, store.Load(userKey, &storedUser))
		assert.Equal(t, "alice", storedUser.Username)
	})

	t.Run("surfaces the server error message on rejection", func(t *testing.T) {
		mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
		}))

		_, _, err := mgr.Login(context.Background(), "alice", "wrong")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid credentials")
		assert.False(t, mgr.IsAuthenticated())
	})

	t.Run("malformed success body is ErrInvalidResponse", func(t *testing.T) {
		mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"unexpected": true}`))
		}))

		_, _, err := mgr.Login(context.Background(), "alice", "hunter2")
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("unreachable server is a NetworkError", func(t *testing.T) {
		store, err := keystore.NewStore(t.TempDir())
		require.NoError(t, err)

		mgr := NewManager(store, "http://127.0.0.1:1", nil)
		_, _, err = mgr.Login(context.Background(), "alice", "hunter2")

		var netErr *NetworkError
		assert.ErrorAs(t, err, &netErr)
	})
}

func TestManager_Register(t *testing.T) {
	t.Run("sends the display name and logs the new user in", func(t *testing.T) {
		user := &model.User{ID: uuid.NewString(), Username: "bob", DisplayName: "Bob"}
		access := mintTokenExpiring(t, time.Now().Add(time.Hour))

		mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/register", r.URL.Path)

			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "Bob", payload["displayName"])

			writeAuthResponse(t, w, access, "refresh-1", user)
		}))

		got, _, err := mgr.Register(context.Background(), "bob", "hunter2", "Bob")
		require.NoError(t, err)
		assert.Equal(t, "bob", got.Username)
		assert.True(t, mgr.IsAuthenticated())
	})
}

func TestManager_AccessToken(t *testing.T) {
	t.Run("returns the cached token without a network call while fresh", func(t *testing.T) {
		var calls atomic.Int32
		mgr, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "unexpected", http.StatusInternalServerError)
		}))

		access := mintTokenExpiring(t, time.Now().Add(time.Hour))
		require.NoError(t, store.Save(tokensKey, Tokens{AccessToken: access, RefreshToken: "refresh-1"}))

		got, err := mgr.AccessToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, access, got)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("refreshes when the cached token is inside the expiry buffer", func(t *testing.T) {
		fresh := mintTokenExpiring(t, time.Now().Add(time.Hour))

		var refreshes atomic.Int32
		mgr, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/refresh", r.URL.Path)
			refreshes.Add(1)

			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "refresh-1", payload["refresh_token"])

			writeAuthResponse(t, w, fresh, "refresh-2", nil)
		}))

		stale := mintTokenExpiring(t, time.Now().Add(10*time.Second))
		require.NoError(t, store.Save(tokensKey, Tokens{AccessToken: stale, RefreshToken: "refresh-1"}))

		got, err := mgr.AccessToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, fresh, got)
		assert.Equal(t, int32(1), refreshes.Load())

		var stored Tokens
		require.NoError(t, store.Load(tokensKey, &stored))
		assert.Equal(t, "refresh-2", stored.RefreshToken)
	})

	t.Run("fails with ErrNoRefreshToken when nothing is stored", func(t *testing.T) {
		mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}))

		_, err := mgr.AccessToken(context.Background())
		assert.ErrorIs(t, err, ErrNoRefreshToken)
	})
}

func TestManager_Refresh(t *testing.T) {
	t.Run("concurrent callers share a single refresh round trip", func(t *testing.T) {
		fresh := mintTokenExpiring(t, time.Now().Add(time.Hour))

		var refreshes atomic.Int32
		mgr, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			refreshes.Add(1)
			time.Sleep(50 * time.Millisecond)
			writeAuthResponse(t, w, fresh, "refresh-2", nil)
		}))

		stale := mintTokenExpiring(t, time.Now().Add(-time.Minute))
		require.NoError(t, store.Save(tokensKey, Tokens{AccessToken: stale, RefreshToken: "refresh-1"}))

		const callers = 20
		results := make([]string, callers)
		errs := make([]error, callers)

		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = mgr.AccessToken(context.Background())
			}(i)
		}
		wg.Wait()

		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, fresh, results[i])
		}
		assert.Equal(t, int32(1), refreshes.Load())
	})

	t.Run("a later refresh issues a new round trip", func(t *testing.T) {
		fresh := mintTokenExpiring(t, time.Now().Add(time.Hour))

		var refreshes atomic.Int32
		mgr, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			refreshes.Add(1)
			writeAuthResponse(t, w, fresh, "refresh-2", nil)
		}))

		require.NoError(t, store.Save(tokensKey, Tokens{AccessToken: "opaque", RefreshToken: "refresh-1"}))

		_, err := mgr.Refresh(context.Background())
		require.NoError(t, err)
		_, err = mgr.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(2), refreshes.Load())
	})

	t.Run("server rejection clears the stored pair", func(t *testing.T) {
		mgr, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "refresh token revoked"}`, http.StatusUnauthorized)
		}))

		stale := mintTokenExpiring(t, time.Now().Add(-time.Minute))
		require.NoError(t, store.Save(tokensKey, Tokens{AccessToken: stale, RefreshToken: "refresh-1"}))

		_, err := mgr.Refresh(context.Background())
		assert.ErrorIs(t, err, ErrRefreshFailed)
		assert.False(t, mgr.IsAuthenticated())

		var stored Tokens
		assert.ErrorIs(t, store.Load(tokensKey, &stored), keystore.ErrNotFound)
	})

	t.Run("malformed refresh body keeps the stored pair", func(t *testing.T) {
		mgr, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))

		require.NoError(t, store.Save(tokensKey, Tokens{AccessToken: "opaque", RefreshToken: "refresh-1"}))

		_, err := mgr.Refresh(context.Background())
		assert.ErrorIs(t, err, ErrInvalidResponse)

		var stored Tokens
		require.NoError(t, store.Load(tokensKey, &stored))
		assert.Equal(t, "refresh-1", stored.RefreshToken)
	})

	t.Run("missing refresh token fails without a network call", func(t *testing.T) {
		mgr, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}))

		require.NoError(t, store.Save(tokensKey, Tokens{AccessToken: "opaque"}))

		_, err := mgr.Refresh(context.Background())
		assert.ErrorIs(t, err, ErrNoRefreshToken)
	})
}

func TestManager_CurrentUser(t *testing.T) {
	t.Run("reads the persisted user record", func(t *testing.T) {
		mgr, store := newTestManager(t, http.NotFoundHandler())

		want := model.User{ID: uuid.NewString(), Username: "alice", DisplayName: "Alice"}
		require.NoError(t, store.Save(userKey, want))

		got, err := mgr.CurrentUser()
		require.NoError(t, err)
		assert.Equal(t, want, *got)
	})

	t.Run("missing record is ErrNotAuthenticated", func(t *testing.T) {
		mgr, _ := newTestManager(t, http.NotFoundHandler())

		_, err := mgr.CurrentUser()
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})
}

func TestManager_Logout(t *testing.T) {
	t.Run("clears tokens, user and active group", func(t *testing.T) {
		mgr, store := newTestManager(t, http.NotFoundHandler())

		access := mintTokenExpiring(t, time.Now().Add(time.Hour))
		require.NoError(t, store.Save(tokensKey, Tokens{AccessToken: access, RefreshToken: "refresh-1"}))
		require.NoError(t, store.Save(userKey, model.User{ID: uuid.NewString(), Username: "alice"}))
		require.NoError(t, mgr.SetActiveGroup("group-1"))

		require.NoError(t, mgr.Logout())

		assert.False(t, mgr.IsAuthenticated())

		_, err := mgr.CurrentUser()
		assert.ErrorIs(t, err, ErrNotAuthenticated)

		var group string
		assert.ErrorIs(t, store.Load(activeGroupKey, &group), keystore.ErrNotFound)
	})

	t.Run("logging out twice is harmless", func(t *testing.T) {
		mgr, _ := newTestManager(t, http.NotFoundHandler())

		require.NoError(t, mgr.Logout())
		require.NoError(t, mgr.Logout())
	})
}

func TestManager_ActiveGroup(t *testing.T) {
	t.Run("set then get uses the local cache", func(t *testing.T) {
		var calls atomic.Int32
		mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.NotFound(w, r)
		}))

		require.NoError(t, mgr.SetActiveGroup("group-1"))

		id, err := mgr.ActiveGroupID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "group-1", id)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("fetches from the server when not cached, then caches", func(t *testing.T) {
		groupID := uuid.NewString()
		access := mintTokenExpiring(t, time.Now().Add(time.Hour))

		var fetches atomic.Int32
		mgr, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/users/me/active-group", r.URL.Path)
			require.Equal(t, "Bearer "+access, r.Header.Get("Authorization"))
			fetches.Add(1)
			json.NewEncoder(w).Encode(map[string]string{"groupId": groupID})
		}))

		require.NoError(t, store.Save(tokensKey, Tokens{AccessToken: access, RefreshToken: "refresh-1"}))

		id, err := mgr.ActiveGroupID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, groupID, id)

		id, err = mgr.ActiveGroupID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, groupID, id)
		assert.Equal(t, int32(1), fetches.Load())
	})

	t.Run("clearing the cache removes the stored record", func(t *testing.T) {
		mgr, store := newTestManager(t, http.NotFoundHandler())

		require.NoError(t, mgr.SetActiveGroup("group-1"))
		require.NoError(t, mgr.SetActiveGroup(""))

		var group string
		assert.ErrorIs(t, store.Load(activeGroupKey, &group), keystore.ErrNotFound)
	})
}
