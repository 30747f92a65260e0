//go:build integration

package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

// Run with: go test -tags integration ./internal/uploads
// PR_MINIO_TEST_TAG overrides the MinIO image tag.
func TestMinioStore(t *testing.T) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %v", err)
	}

	tag := os.Getenv("PR_MINIO_TEST_TAG")
	if tag == "" {
		tag = "RELEASE.2024-01-31T20-20-33Z"
	}
	res, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "minio/minio",
		Tag:        tag,
		Cmd:        []string{"server", "/data"},
		Env: []string{
			"MINIO_ROOT_USER=minio",
			"MINIO_ROOT_PASSWORD=minio123",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		t.Fatalf("could not start minio: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(res) })

	endpoint := "localhost:" + res.GetPort("9000/tcp")
	if err := pool.Retry(func() error {
		resp, err := http.Get("http://" + endpoint + "/minio/health/live")
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("minio not ready: %d", resp.StatusCode)
		}
		return nil
	}); err != nil {
		t.Fatalf("minio not ready: %v", err)
	}

	ctx := context.Background()
	mc, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4("minio", "minio123", ""),
	})
	if err != nil {
		t.Fatalf("failed to create minio client: %v", err)
	}
	if err := mc.MakeBucket(ctx, "personnel", minio.MakeBucketOptions{}); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	cfg := MinioConfig{Endpoint: "http://" + endpoint, AccessKey: "minio", SecretKey: "minio123", Bucket: "missing"}
	if _, err := NewMinioStore(ctx, cfg); err == nil {
		t.Fatal("expected error for missing bucket")
	}

	cfg.Bucket = "personnel"
	store, err := NewMinioStore(ctx, cfg)
	if err != nil {
		t.Fatalf("NewMinioStore: %v", err)
	}
	m := NewManager("uploads", store)

	stored, err := m.Accept(ctx, "A1", fileHeader(t, "photo.png", []byte("not really a png")))
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	rel, ok := m.Rel(stored)
	if !ok {
		t.Fatalf("Rel(%q) failed", stored)
	}
	obj, err := m.Open(ctx, rel)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	body, _ := io.ReadAll(obj)
	_ = obj.Close()
	if string(body) != "not really a png" {
		t.Fatalf("read back %q", body)
	}

	if err := m.Remove(ctx, stored); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := m.Open(ctx, rel); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open after remove err = %v, want ErrNotFound", err)
	}
}
