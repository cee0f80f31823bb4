package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/object/upload/sign/media/videos/user-123/clip.mp4", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{
			"url": "/object/upload/sign/media/videos/user-123/clip.mp4?token=tok-abc",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", "myproject")
	signed, err := c.SignUpload(context.Background(), "media", "videos/user-123/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "media", signed.Bucket)
	assert.Equal(t, "videos/user-123/clip.mp4", signed.Path)
	assert.Equal(t, "tok-abc", signed.Token)
	assert.Equal(t, "myproject", signed.ProjectRef)
}

func TestSignUploadNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"url": "/object/upload/sign/media/x.mp4"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "ref")
	_, err := c.SignUpload(context.Background(), "media", "x.mp4")
	assert.ErrorContains(t, err, "no token")
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/object/uploads-staging/user-123/in.mp4", r.URL.Path)
		w.Write([]byte("video-bytes"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "ref")
	data, err := c.Download(context.Background(), "uploads-staging", "user-123/in.mp4")
	require.NoError(t, err)
	assert.Equal(t, []byte("video-bytes"), data)
}

func TestDownloadEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "ref")
	_, err := c.Download(context.Background(), "uploads-staging", "user-123/in.mp4")
	assert.ErrorIs(t, err, ErrEmptyObject)
}

func TestDownloadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "ref")
	_, err := c.Download(context.Background(), "uploads-staging", "user-123/in.mp4")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.Header.Get("x-upsert"))
		assert.Equal(t, "video/mp4", r.Header.Get("Content-Type"))
		http.Error(w, "already exists", http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "ref")
	err := c.Upload(context.Background(), "media", "videos/u/v.mp4", []byte("x"), "video/mp4")
	assert.ErrorIs(t, err, ErrObjectExists)
}

func TestUpload(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/object/media/videos/u/v.mp4", r.URL.Path)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "ref")
	err := c.Upload(context.Background(), "media", "videos/u/v.mp4", []byte("payload"), "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), gotBody)
}

func TestRemove(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/object/uploads-staging", r.URL.Path)
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"u/a.mp4", "u/b.png"}, body["prefixes"])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "ref")
	err := c.Remove(context.Background(), "uploads-staging", "u/a.mp4", "u/b.png")
	assert.NoError(t, err)
}

func TestRemoveNothing(t *testing.T) {
	c := NewClient("http://unused.invalid", "k", "ref")
	assert.NoError(t, c.Remove(context.Background(), "uploads-staging"))
}

func TestProjectRefFromURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://abcd1234.supabase.co/storage/v1", "abcd1234"},
		{"https://storage.example.com", "storage"},
		{"http://localhost:9000", "localhost"},
		{"not a url", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProjectRefFromURL(tt.in), tt.in)
	}
}
