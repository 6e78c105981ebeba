package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acuralabs/sessionkit/pkg/cookie"
)

func TestManager_Set(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		mgr := cookie.New()
		w := httptest.NewRecorder()

		mgr.Set(w, "sid", "value")

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "sid", cookies[0].Name)
		assert.Equal(t, "value", cookies[0].Value)
		assert.Equal(t, "/", cookies[0].Path)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	})

	t.Run("per-call options override defaults", func(t *testing.T) {
		mgr := cookie.New()
		w := httptest.NewRecorder()

		mgr.Set(w, "sid", "value",
			cookie.WithSecure(true),
			cookie.WithMaxAge(3600),
		)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.True(t, cookies[0].Secure)
		assert.Equal(t, 3600, cookies[0].MaxAge)
	})

	t.Run("absolute expiry", func(t *testing.T) {
		mgr := cookie.New()
		w := httptest.NewRecorder()
		expires := time.Now().Add(24 * time.Hour).Truncate(time.Second)

		mgr.Set(w, "sid", "value", cookie.WithExpires(expires))

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.WithinDuration(t, expires, cookies[0].Expires, time.Second)
	})

	t.Run("defaults stay immutable", func(t *testing.T) {
		mgr := cookie.New()
		w1 := httptest.NewRecorder()
		mgr.Set(w1, "a", "1", cookie.WithSecure(true))

		w2 := httptest.NewRecorder()
		mgr.Set(w2, "b", "2")

		assert.False(t, w2.Result().Cookies()[0].Secure)
	})
}

func TestManager_Get(t *testing.T) {
	t.Run("returns cookie value", func(t *testing.T) {
		mgr := cookie.New()
		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})

		val, err := mgr.Get(r, "sid")
		require.NoError(t, err)
		assert.Equal(t, "abc", val)
	})

	t.Run("missing cookie", func(t *testing.T) {
		mgr := cookie.New()
		r := httptest.NewRequest("GET", "/", nil)

		_, err := mgr.Get(r, "sid")
		assert.ErrorIs(t, err, cookie.ErrNotFound)
	})
}

func TestManager_Delete(t *testing.T) {
	mgr := cookie.New()
	w := httptest.NewRecorder()

	mgr.Delete(w, "sid")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.True(t, cookies[0].Expires.Before(time.Now()))
}
