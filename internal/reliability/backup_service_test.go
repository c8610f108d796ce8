package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltpboard/ltpboard/internal/config"
	testhelpers "github.com/ltpboard/ltpboard/internal/testing"
)

// memoryStore is an in-memory ObjectStore.
type memoryStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleteErr error
	listErr   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Upload(_ context.Context, key string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]types.Object, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []types.Object
	for key, data := range m.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, types.Object{Key: aws.String(key), Size: aws.Int64(int64(len(data)))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].Key < *out[j].Key })
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := make(map[string][]byte)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[hdr.Name] = content
	}
	return files
}

func TestBackupName(t *testing.T) {
	at := time.Date(2026, 1, 8, 14, 30, 22, 0, time.UTC)
	assert.Equal(t, "ltpboard-backup-2026-01-08-143022.tar.gz", BackupName(at))
}

func TestCreateAndUploadBackup(t *testing.T) {
	db := testhelpers.NewTestDB(t, "history")
	_, err := db.Conn().Exec(
		`INSERT INTO portfolio_history (cycle_id, portfolio, recorded_at, total_investment, total_pnl, holdings)
		 VALUES ('c1', 'bro', 1, '10', '1', x'90')`,
	)
	require.NoError(t, err)

	store := newMemoryStore()
	svc := NewBackupService(store, db, t.TempDir(), zerolog.Nop())
	at := time.Date(2026, 1, 8, 14, 30, 22, 0, time.UTC)
	svc.now = func() time.Time { return at }

	require.NoError(t, svc.CreateAndUploadBackup(context.Background()))

	require.Equal(t, []string{"ltpboard-backup-2026-01-08-143022.tar.gz"}, store.keys())
	files := readArchive(t, store.objects[store.keys()[0]])
	require.Contains(t, files, "history.db")
	require.Contains(t, files, metadataFilename)

	var meta BackupMetadata
	require.NoError(t, json.Unmarshal(files[metadataFilename], &meta))
	assert.Equal(t, metadataVersion, meta.Version)
	assert.True(t, meta.Timestamp.Equal(at))
	require.Len(t, meta.Databases, 1)
	assert.Equal(t, "history", meta.Databases[0].Name)
	assert.Equal(t, int64(len(files["history.db"])), meta.Databases[0].SizeBytes)
	assert.Equal(t, fmt.Sprintf("sha256:%x", sha256.Sum256(files["history.db"])), meta.Databases[0].Checksum)
}

func TestListBackups(t *testing.T) {
	store := newMemoryStore()
	store.objects["ltpboard-backup-2026-01-01-000000.tar.gz"] = []byte("a")
	store.objects["ltpboard-backup-2026-01-03-000000.tar.gz"] = []byte("bbb")
	store.objects["ltpboard-backup-garbage.tar.gz"] = []byte("x")
	store.objects["ltpboard-backup-2026-01-02-000000.zip"] = []byte("x")
	store.objects["other-2026-01-02-000000.tar.gz"] = []byte("x")

	svc := NewBackupService(store, nil, t.TempDir(), zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC) }

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 2)

	assert.Equal(t, "ltpboard-backup-2026-01-03-000000.tar.gz", backups[0].Filename)
	assert.Equal(t, int64(3), backups[0].SizeBytes)
	assert.Equal(t, int64(24), backups[0].AgeHours)
	assert.Equal(t, "ltpboard-backup-2026-01-01-000000.tar.gz", backups[1].Filename)
}

func TestListBackups_Error(t *testing.T) {
	store := newMemoryStore()
	store.listErr = errors.New("forbidden")
	svc := NewBackupService(store, nil, t.TempDir(), zerolog.Nop())

	_, err := svc.ListBackups(context.Background())
	assert.Error(t, err)
}

func TestRotateOldBackups(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore()
	for _, daysAgo := range []int{1, 2, 40, 50, 60} {
		store.objects[BackupName(now.AddDate(0, 0, -daysAgo))] = []byte("x")
	}

	svc := NewBackupService(store, nil, t.TempDir(), zerolog.Nop())
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.RotateOldBackups(context.Background(), 30))

	// the three newest survive even though the third is past retention
	assert.Equal(t, []string{
		BackupName(now.AddDate(0, 0, -40)),
		BackupName(now.AddDate(0, 0, -2)),
		BackupName(now.AddDate(0, 0, -1)),
	}, store.keys())
}

func TestRotateOldBackups_KeepsMinimum(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore()
	for _, daysAgo := range []int{100, 200, 300} {
		store.objects[BackupName(now.AddDate(0, 0, -daysAgo))] = []byte("x")
	}

	svc := NewBackupService(store, nil, t.TempDir(), zerolog.Nop())
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.RotateOldBackups(context.Background(), 30))
	assert.Len(t, store.keys(), 3)
}

func TestRotateOldBackups_ZeroRetentionKeepsAll(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore()
	for _, daysAgo := range []int{100, 200, 300, 400} {
		store.objects[BackupName(now.AddDate(0, 0, -daysAgo))] = []byte("x")
	}

	svc := NewBackupService(store, nil, t.TempDir(), zerolog.Nop())
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.RotateOldBackups(context.Background(), 0))
	assert.Len(t, store.keys(), 4)
}

func TestRotateOldBackups_DeleteErrorsAreSkipped(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore()
	for _, daysAgo := range []int{1, 2, 3, 90} {
		store.objects[BackupName(now.AddDate(0, 0, -daysAgo))] = []byte("x")
	}
	store.deleteErr = errors.New("denied")

	svc := NewBackupService(store, nil, t.TempDir(), zerolog.Nop())
	svc.now = func() time.Time { return now }

	assert.NoError(t, svc.RotateOldBackups(context.Background(), 30))
	assert.Len(t, store.keys(), 4)
}

func TestNewR2Client_RequiresConfig(t *testing.T) {
	_, err := NewR2Client(context.Background(), nil, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewR2Client(context.Background(), &config.BackupConfig{Bucket: "b"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewR2Client(t *testing.T) {
	client, err := NewR2Client(context.Background(), &config.BackupConfig{
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "ltpboard",
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "ltpboard", client.bucket)
}
