package archive

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gathering-api/internal/domain/poll"
)

type fakeStore struct {
	buckets map[string]bool
	objects map[string][]byte
	opts    minio.PutObjectOptions
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (f *fakeStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeStore) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	return nil
}

func (f *fakeStore) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[bucket+"/"+object] = data
	f.opts = opts
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
}

func finishedView() poll.PollView {
	return poll.PollView{
		PollID:      uuid.New(),
		GatheringID: uuid.New(),
		EventID:     uuid.New(),
		Agenda:      "Venue?",
		Active:      false,
		Options: []poll.OptionView{
			{Index: 0, Name: "Cafe", VoteCount: 3},
			{Index: 1, Name: "Park", VoteCount: 5},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	view := finishedView()
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	data, err := EncodeSnapshot(NewSnapshot(view, at))
	require.NoError(t, err)

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, got.Version)
	assert.Equal(t, 8, got.TotalVotes)
	assert.True(t, at.Equal(got.ArchivedAt))
	assert.Equal(t, view.PollID, got.Poll.PollID)
	assert.Equal(t, view.Options, got.Poll.Options)

	_, err = DecodeSnapshot([]byte("not zstd"))
	assert.Error(t, err)
}

func TestObjectKey(t *testing.T) {
	g, e, p := uuid.New(), uuid.New(), uuid.New()
	assert.Equal(t,
		"gatherings/"+g.String()+"/events/"+e.String()+"/polls/"+p.String()+".json.zst",
		ObjectKey(g, e, p))
}

func TestArchivePollUploadsSnapshot(t *testing.T) {
	store := newFakeStore()
	a := newArchiver(store, "poll-archive")
	ctx := context.Background()

	require.NoError(t, a.EnsureBucket(ctx))
	assert.True(t, store.buckets["poll-archive"])
	require.NoError(t, a.EnsureBucket(ctx))

	view := finishedView()
	require.NoError(t, a.ArchivePoll(ctx, view))

	key := "poll-archive/" + ObjectKey(view.GatheringID, view.EventID, view.PollID)
	require.Contains(t, store.objects, key)
	assert.Equal(t, "zstd", store.opts.ContentEncoding)
	assert.Equal(t, view.PollID.String(), store.opts.UserMetadata["poll-id"])

	got, err := DecodeSnapshot(store.objects[key])
	require.NoError(t, err)
	assert.Equal(t, view.Agenda, got.Poll.Agenda)
}

func TestArchivePollReportsUploadFailure(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("connection refused")
	a := newArchiver(store, "poll-archive")

	err := a.ArchivePoll(context.Background(), finishedView())
	assert.ErrorIs(t, err, store.putErr)
}
