package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenfeed/lumenfeed/internal/db"
	"github.com/lumenfeed/lumenfeed/pkg/ffmpeg"
)

var testOwner = Identity{UserID: "user-12345-abcde", Username: "alice"}

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   map[string][]byte
	uploadErr error
	downloads int
	removed   [][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects: map[string][]byte{},
		uploads: map[string][]byte{},
	}
}

func (s *fakeStore) key(bucket, path string) string { return bucket + "/" + path }

func (s *fakeStore) Download(_ context.Context, bucket, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads++
	data, ok := s.objects[s.key(bucket, path)]
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, path)
	}
	return data, nil
}

func (s *fakeStore) Upload(_ context.Context, bucket, path string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploads[s.key(bucket, path)] = data
	return nil
}

func (s *fakeStore) Remove(_ context.Context, bucket string, paths ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, paths)
	return nil
}

type fakeCatalog struct {
	mu       sync.Mutex
	inserted []db.InsertMediaParams
	failOn   func(p db.InsertMediaParams) error
	nextID   int64
	profiles map[string]string
}

func (c *fakeCatalog) UpsertProfile(_ context.Context, userID, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profiles == nil {
		c.profiles = map[string]string{}
	}
	c.profiles[userID] = username
	return nil
}

func (c *fakeCatalog) InsertMedia(_ context.Context, params db.InsertMediaParams) (*db.Media, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn != nil {
		if err := c.failOn(params); err != nil {
			return nil, err
		}
	}
	c.inserted = append(c.inserted, params)
	c.nextID++
	return &db.Media{
		ID:          c.nextID,
		OwnerID:     params.OwnerID,
		MediaType:   params.MediaType,
		Audience:    params.Audience,
		StoragePath: params.StoragePath,
		Tags:        params.Tags,
	}, nil
}

// okTranscode stands in for the ffmpeg subprocess and records the
// TranscodeSpec it was handed.
type okTranscode struct {
	mu    sync.Mutex
	specs []ffmpeg.TranscodeSpec
}

func (f *okTranscode) run(_ context.Context, spec ffmpeg.TranscodeSpec, _, _, output string) ffmpeg.RunResult {
	f.mu.Lock()
	f.specs = append(f.specs, spec)
	f.mu.Unlock()
	if err := os.WriteFile(output, []byte("transcoded-bytes"), 0o600); err != nil {
		return ffmpeg.RunResult{Err: err}
	}
	return ffmpeg.RunResult{Logs: "frame= 300"}
}

func fakeProbe(_ context.Context, _ string) (*ffmpeg.ProbeResult, error) {
	return &ffmpeg.ProbeResult{Width: 1280, Height: 720}, nil
}

func newTestPipeline(store *fakeStore, catalog *fakeCatalog, transcode TranscodeFunc) *Pipeline {
	return NewPipeline(Config{
		Store:     store,
		Catalog:   catalog,
		Transcode: transcode,
		Probe:     fakeProbe,
	})
}

func stagedJob() TranscodeJob {
	return TranscodeJob{
		StagingVideoPath:     "staging/" + testOwner.UserID + "/abc/in.mp4",
		StagingWatermarkPath: "staging/" + testOwner.UserID + "/abc/wm.png",
		StartSec:             0,
		EndSec:               10,
		Position:             ffmpeg.OverlayBottomRight,
		Audience:             db.AudienceStraight,
		Title:                "Clip",
		Tags:                 []string{"Cat", "Cat"},
	}
}

func stage(store *fakeStore, job TranscodeJob) {
	store.objects["uploads-staging/"+job.StagingVideoPath] = []byte("raw-video")
	store.objects["uploads-staging/"+job.StagingWatermarkPath] = []byte("png-bytes")
}

func TestIngestVideo(t *testing.T) {
	store := newFakeStore()
	catalog := &fakeCatalog{}
	transcode := &okTranscode{}
	p := newTestPipeline(store, catalog, transcode.run)

	job := stagedJob()
	stage(store, job)

	record, err := p.IngestVideo(context.Background(), testOwner, job)
	require.NoError(t, err)

	require.Len(t, transcode.specs, 1)
	spec := transcode.specs[0]
	assert.Equal(t, 0.0, spec.StartSec)
	assert.Equal(t, 10.0, spec.DurationSec)
	assert.Equal(t, ffmpeg.OverlayBottomRight, spec.Position)

	require.Len(t, catalog.inserted, 1)
	params := catalog.inserted[0]
	assert.Equal(t, []string{"Cat"}, params.Tags)
	assert.Equal(t, db.MediaTypeVideo, params.MediaType)
	assert.Equal(t, 10.0, params.DurationSeconds.Float64)
	assert.Equal(t, int32(1280), params.Width.Int32)

	assert.Equal(t, testOwner.Username, catalog.profiles[testOwner.UserID])

	assert.True(t, strings.HasPrefix(record.StoragePath, "videos/"+testOwner.UserID+"/"))
	assert.True(t, strings.HasSuffix(record.StoragePath, ".mp4"))
	assert.Equal(t, []byte("transcoded-bytes"), store.uploads["media/"+record.StoragePath])

	require.Len(t, store.removed, 1)
	assert.ElementsMatch(t, []string{job.StagingVideoPath, job.StagingWatermarkPath}, store.removed[0])
}

func exitError(t *testing.T, code int) error {
	t.Helper()
	err := exec.Command("sh", "-c", fmt.Sprintf("exit %d", code)).Run()
	require.Error(t, err)
	return err
}

func TestIngestVideoTranscodeFailed(t *testing.T) {
	store := newFakeStore()
	catalog := &fakeCatalog{}
	exitErr := exitError(t, 1)
	failing := func(_ context.Context, _ ffmpeg.TranscodeSpec, _, _, _ string) ffmpeg.RunResult {
		return ffmpeg.RunResult{Err: &ffmpeg.Error{
			Args:   []string{"-i", "in.mp4"},
			Stderr: "conversion failed",
			Err:    exitErr,
		}}
	}
	p := newTestPipeline(store, catalog, failing)

	job := stagedJob()
	stage(store, job)

	_, err := p.IngestVideo(context.Background(), testOwner, job)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindTranscodeFailed, pe.Kind)
	assert.Equal(t, 1, pe.ExitCode)

	assert.Empty(t, catalog.inserted)
	assert.Empty(t, store.uploads)
	// staging artifacts stay put so a retry can reuse them
	assert.Empty(t, store.removed)
}

func TestIngestVideoScopeViolation(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, &fakeCatalog{}, (&okTranscode{}).run)

	job := stagedJob()
	job.StagingVideoPath = "other-user-99999/abc/in.mp4"

	_, err := p.IngestVideo(context.Background(), testOwner, job)
	assert.Equal(t, KindForbidden, KindOf(err))
	// rejected before any network call
	assert.Zero(t, store.downloads)
}

func TestIngestVideoValidation(t *testing.T) {
	tests := []struct {
		name   string
		owner  Identity
		mutate func(*TranscodeJob)
		want   Kind
	}{
		{"short user id", Identity{UserID: "abc"}, func(*TranscodeJob) {}, KindUnauthorized},
		{"user id with slash", Identity{UserID: "ab/../cd-0123456789"}, func(*TranscodeJob) {}, KindUnauthorized},
		{"missing paths", testOwner, func(j *TranscodeJob) { j.StagingVideoPath = "" }, KindInvalidInput},
		{"empty trim window", testOwner, func(j *TranscodeJob) { j.StartSec, j.EndSec = 10, 10 }, KindInvalidInput},
		{"inverted trim window", testOwner, func(j *TranscodeJob) { j.StartSec, j.EndSec = 12, 3 }, KindInvalidInput},
		{"bad audience", testOwner, func(j *TranscodeJob) { j.Audience = "everyone" }, KindInvalidInput},
		{"bad position", testOwner, func(j *TranscodeJob) { j.Position = "center" }, KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			transcode := &okTranscode{}
			p := newTestPipeline(store, &fakeCatalog{}, transcode.run)

			job := stagedJob()
			tt.mutate(&job)

			_, err := p.IngestVideo(context.Background(), tt.owner, job)
			assert.Equal(t, tt.want, KindOf(err))
			assert.Zero(t, store.downloads)
			assert.Empty(t, transcode.specs)
		})
	}
}

func TestIngestVideoFetchFailed(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, &fakeCatalog{}, (&okTranscode{}).run)

	// nothing staged
	_, err := p.IngestVideo(context.Background(), testOwner, stagedJob())
	assert.Equal(t, KindUpstreamFetch, KindOf(err))
}

func TestIngestVideoPublishFailed(t *testing.T) {
	store := newFakeStore()
	store.uploadErr = errors.New("storage unavailable")
	catalog := &fakeCatalog{}
	p := newTestPipeline(store, catalog, (&okTranscode{}).run)

	job := stagedJob()
	stage(store, job)

	_, err := p.IngestVideo(context.Background(), testOwner, job)
	assert.Equal(t, KindPublishUpload, KindOf(err))
	assert.Empty(t, catalog.inserted)
	assert.Empty(t, store.removed)
}

func TestIngestVideoCatalogFailed(t *testing.T) {
	store := newFakeStore()
	catalog := &fakeCatalog{failOn: func(db.InsertMediaParams) error {
		return errors.New("connection reset")
	}}
	p := newTestPipeline(store, catalog, (&okTranscode{}).run)

	job := stagedJob()
	stage(store, job)

	_, err := p.IngestVideo(context.Background(), testOwner, job)
	assert.Equal(t, KindCatalogWrite, KindOf(err))
	// published object is orphaned, staging untouched
	assert.Len(t, store.uploads, 1)
	assert.Empty(t, store.removed)
}

func TestIngestVideoClampsWindow(t *testing.T) {
	store := newFakeStore()
	transcode := &okTranscode{}
	p := newTestPipeline(store, &fakeCatalog{}, transcode.run)

	job := stagedJob()
	job.StartSec = -3
	job.EndSec = 7
	stage(store, job)

	_, err := p.IngestVideo(context.Background(), testOwner, job)
	require.NoError(t, err)
	require.Len(t, transcode.specs, 1)
	assert.Equal(t, 0.0, transcode.specs[0].StartSec)
	assert.Equal(t, 7.0, transcode.specs[0].DurationSec)
}

func TestIngestImage(t *testing.T) {
	catalog := &fakeCatalog{}
	p := newTestPipeline(newFakeStore(), catalog, (&okTranscode{}).run)

	record, err := p.IngestImage(context.Background(), testOwner, ImageJob{
		StoragePath: "images/" + testOwner.UserID + "/pic.jpg",
		Audience:    db.AudienceGay,
		Title:       "  <b>Beach</b> day  ",
		Tags:        []string{"summer", "SUMMER", "beach"},
		Width:       800,
		Height:      600,
	})
	require.NoError(t, err)
	assert.Equal(t, db.MediaTypeImage, record.MediaType)

	params := catalog.inserted[0]
	assert.Equal(t, "Beach day", params.Title.String)
	assert.Equal(t, []string{"Summer", "Beach"}, params.Tags)
	assert.Equal(t, int32(800), params.Width.Int32)
}

func TestIngestImageScope(t *testing.T) {
	p := newTestPipeline(newFakeStore(), &fakeCatalog{}, (&okTranscode{}).run)
	_, err := p.IngestImage(context.Background(), testOwner, ImageJob{
		StoragePath: "images/somebody-else-123/pic.jpg",
		Audience:    db.AudienceStraight,
	})
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestIngestImageBatch(t *testing.T) {
	catalog := &fakeCatalog{failOn: func(p db.InsertMediaParams) error {
		if strings.Contains(p.StoragePath, "/pic-3.") {
			return errors.New("disk full")
		}
		return nil
	}}
	p := newTestPipeline(newFakeStore(), catalog, (&okTranscode{}).run)

	jobs := make([]ImageJob, 5)
	for i := range jobs {
		jobs[i] = ImageJob{
			StoragePath: fmt.Sprintf("images/%s/pic-%d.jpg", testOwner.UserID, i),
			Audience:    db.AudienceStraight,
		}
	}

	result := p.IngestImageBatch(context.Background(), testOwner, jobs)
	require.Len(t, result.Successes, 4)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 3, result.Failures[0].Index)
	assert.Contains(t, result.Failures[0].Error, "disk full")

	wantIdx := []int{0, 1, 2, 4}
	for i, s := range result.Successes {
		assert.Equal(t, wantIdx[i], s.Index)
		require.NotNil(t, s.Record)
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"dedupe case-insensitive", []string{"Cat", "cat", "CAT"}, []string{"Cat"}},
		{"title cased", []string{"red panda", "snow-leopard"}, []string{"Red Panda", "Snow Leopard"}},
		{"blank dropped", []string{"", "  ", "ok"}, []string{"Ok"}},
		{
			"capped at ten",
			[]string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "a10", "a11"},
			[]string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "A10"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTags(tt.in))
		})
	}
}

func TestErrorHTTPStatus(t *testing.T) {
	assert.Equal(t, 401, errUnauthorized("x").HTTPStatus())
	assert.Equal(t, 403, errForbidden("x").HTTPStatus())
	assert.Equal(t, 400, errInvalid("x").HTTPStatus())
	assert.Equal(t, 500, wrap(KindCatalogWrite, errors.New("x"), "y").HTTPStatus())
	assert.Equal(t, 500, wrap(KindTranscodeFailed, errors.New("x"), "y").HTTPStatus())
}
