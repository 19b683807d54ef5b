package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/andresuchdata/ecsync/internal/config"
	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	objects map[string][]byte
	types   map[string]string
	failOn  string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	if key == m.failOn {
		return errors.New("access denied")
	}
	m.objects[key] = append([]byte(nil), data...)
	m.types[key] = contentType
	return nil
}

func (m *memoryStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return data, nil
}

func (m *memoryStore) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for k, v := range m.objects {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		out = append(out, ObjectInfo{Key: k, Size: int64(len(v))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func pub(date string) *domain.Publication {
	return &domain.Publication{Report: &domain.Report{
		Period: domain.Period{Today: date, WindowStart: date, WindowEnd: date},
		Sales:  domain.SalesSummary{WindowTotal: 42, DailySeries: map[string]int64{date: 42}},
	}}
}

func TestReportSink_TodayUpdatesLatest(t *testing.T) {
	store := newMemoryStore()
	s := NewReportSink(store, "dashboard", func() string { return "2025-06-11" })

	require.True(t, s.Configured())
	require.NoError(t, s.Publish(context.Background(), pub("2025-06-11")))

	objects, err := store.ListObjects(context.Background(), "dashboard/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "dashboard/2025-06-11.json", objects[0].Key)
	assert.Equal(t, "dashboard/latest.json", objects[1].Key)
	assert.Equal(t, "application/json", store.types["dashboard/latest.json"])

	var r domain.Report
	require.NoError(t, json.Unmarshal(store.objects["dashboard/latest.json"], &r))
	assert.Equal(t, int64(42), r.Sales.WindowTotal)
}

func TestReportSink_PastDateLeavesLatest(t *testing.T) {
	store := newMemoryStore()
	s := NewReportSink(store, "", func() string { return "2025-06-11" })

	require.NoError(t, s.Publish(context.Background(), pub("2025-06-09")))

	assert.Contains(t, store.objects, "2025-06-09.json")
	assert.NotContains(t, store.objects, "latest.json")
}

func TestReportSink_Errors(t *testing.T) {
	store := newMemoryStore()
	store.failOn = "dashboard/2025-06-11.json"

	err := NewReportSink(store, "dashboard", nil).Publish(context.Background(), pub("2025-06-11"))
	assert.EqualError(t, err, "access denied")
	assert.Empty(t, store.objects)

	assert.False(t, NewReportSink(nil, "dashboard", nil).Configured())
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		raw     string
		useSSL  bool
		want    string
		wantTLS bool
	}{
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"minio.internal:9000", true, "minio.internal:9000", true},
		{"//minio.internal", false, "minio.internal", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, secure := normalizeEndpoint(tt.raw, tt.useSSL)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantTLS, secure)
		})
	}
}

func TestNewMinioClient_Validation(t *testing.T) {
	_, err := NewMinioClient(configWith("", "a", "b", "bucket"))
	assert.Error(t, err)
	_, err = NewMinioClient(configWith("localhost:9000", "", "b", "bucket"))
	assert.Error(t, err)
	_, err = NewMinioClient(configWith("localhost:9000", "a", "b", ""))
	assert.Error(t, err)

	c, err := NewMinioClient(configWith("http://localhost:9000", "a", "b", "bucket"))
	require.NoError(t, err)
	assert.Equal(t, "bucket", c.bucket)
}

func configWith(endpoint, access, secret, bucket string) config.StorageConfig {
	return config.StorageConfig{Endpoint: endpoint, AccessKey: access, SecretKey: secret, Bucket: bucket}
}

func TestReportArchive_ReadsWhatTheSinkWrote(t *testing.T) {
	store := newMemoryStore()
	sink := NewReportSink(store, "dashboard", func() string { return "2025-06-11" })
	require.NoError(t, sink.Publish(context.Background(), pub("2025-06-10")))
	require.NoError(t, sink.Publish(context.Background(), pub("2025-06-11")))
	store.objects["dashboard/notes.txt"] = []byte("x")
	store.objects["other/2025-01-01.json"] = []byte("{}")

	archive := NewReportArchive(store, "dashboard")

	latest, err := archive.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-06-11", latest.Period.Today)

	past, err := archive.ByDate(context.Background(), "2025-06-10")
	require.NoError(t, err)
	assert.Equal(t, int64(42), past.Sales.WindowTotal)

	_, err = archive.ByDate(context.Background(), "2024-01-01")
	assert.ErrorIs(t, err, report.ErrNotFound)

	dates, err := archive.Dates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-11", "2025-06-10"}, dates)

	assert.Nil(t, NewReportArchive(nil, "dashboard"))
}
