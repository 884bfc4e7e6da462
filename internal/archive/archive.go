// Package archive stores the final results of finished polls in an S3
// compatible bucket as zstd-compressed JSON snapshots.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gatherly/gathering-api/internal/config"
	"github.com/gatherly/gathering-api/internal/domain/poll"
	"github.com/gatherly/gathering-api/internal/logger"
)

// SnapshotVersion is bumped whenever the snapshot layout changes
const SnapshotVersion = 1

// Snapshot is the archived form of a finished poll
type Snapshot struct {
	Version    int           `json:"schema_version"`
	ArchivedAt time.Time     `json:"archived_at"`
	TotalVotes int           `json:"total_votes"`
	Poll       poll.PollView `json:"poll"`
}

// encoder and decoder are safe for concurrent use
var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("archive: zstd encoder initialization failed: " + err.Error())
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("archive: zstd decoder initialization failed: " + err.Error())
	}
}

// NewSnapshot builds the snapshot of a poll's final state
func NewSnapshot(view poll.PollView, archivedAt time.Time) Snapshot {
	total := 0
	for _, opt := range view.Options {
		total += opt.VoteCount
	}
	return Snapshot{
		Version:    SnapshotVersion,
		ArchivedAt: archivedAt.UTC(),
		TotalVotes: total,
		Poll:       view,
	}
}

// EncodeSnapshot serializes and compresses a snapshot
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return encoder.EncodeAll(raw, nil), nil
}

// DecodeSnapshot reverses EncodeSnapshot
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}

// ObjectKey is the bucket key of a poll's snapshot
func ObjectKey(gatheringID, eventID, pollID uuid.UUID) string {
	return fmt.Sprintf("gatherings/%s/events/%s/polls/%s.json.zst", gatheringID, eventID, pollID)
}

// objectStore is the subset of *minio.Client used here
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archiver writes poll snapshots to object storage
type Archiver struct {
	store  objectStore
	bucket string
	now    func() time.Time
	log    *log.Logger
}

// New connects to the configured endpoint
func New(cfg config.ArchiveConfig) (*Archiver, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	return newArchiver(client, cfg.Bucket), nil
}

func newArchiver(store objectStore, bucket string) *Archiver {
	return &Archiver{
		store:  store,
		bucket: bucket,
		now:    time.Now,
		log:    logger.Archive(),
	}
}

// EnsureBucket creates the bucket if it does not exist yet
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.store.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}

	if err := a.store.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	a.log.Info("created archive bucket", "bucket", a.bucket)
	return nil
}

// ArchivePoll uploads the snapshot of a finished poll
func (a *Archiver) ArchivePoll(ctx context.Context, view poll.PollView) error {
	data, err := EncodeSnapshot(NewSnapshot(view, a.now()))
	if err != nil {
		return err
	}

	key := ObjectKey(view.GatheringID, view.EventID, view.PollID)
	_, err = a.store.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:     "application/json",
		ContentEncoding: "zstd",
		UserMetadata: map[string]string{
			"poll-id":  view.PollID.String(),
			"event-id": view.EventID.String(),
		},
	})
	if err != nil {
		a.log.Error("failed to upload poll snapshot", "poll_id", view.PollID, "key", key, "error", err)
		return fmt.Errorf("failed to upload poll snapshot: %w", err)
	}

	a.log.Info("poll snapshot archived", "poll_id", view.PollID, "key", key, "bytes", len(data))
	return nil
}

var _ poll.ResultArchiver = (*Archiver)(nil)
