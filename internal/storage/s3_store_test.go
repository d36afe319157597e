//go:build integration

package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"studiosite/internal/config"
)

const garageConfig = `metadata_dir = "/tmp/garage/meta"
data_dir = "/tmp/garage/data"
db_engine = "sqlite"
replication_factor = 1

rpc_bind_addr = "[::]:3901"
rpc_public_addr = "127.0.0.1:3901"

[s3_api]
s3_region = "garage"
api_bind_addr = "[::]:3900"
root_domain = ".s3.garage.localhost"
`

func setupTest(ctx context.Context) (testcontainers.Container, *S3Store, error) {
	req := testcontainers.ContainerRequest{
		Image:        "dxflrs/garage:v1.0.0",
		ExposedPorts: []string{"3900/tcp"},
		Files: []testcontainers.ContainerFile{
			{
				Reader:            strings.NewReader(garageConfig),
				ContainerFilePath: "/etc/garage.toml",
				FileMode:          0644,
			},
		},
		Env: map[string]string{
			"GARAGE_RPC_SECRET": strings.Repeat("a", 64),
		},
		WaitingFor: wait.ForListeningPort("3900/tcp"),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start container: %w", err)
	}

	success := false
	defer func() {
		if !success {
			c.Terminate(ctx)
		}
	}()

	// garage needs a little time to fully initialise
	time.Sleep(2 * time.Second)

	nodeID, err := getNodeID(ctx, c)
	if err != nil {
		return nil, nil, err
	}

	if err := execGarage(ctx, c, "/garage", "layout", "assign", "-z", "dc1", "-c", "1G", nodeID); err != nil {
		return nil, nil, err
	}
	if err := execGarage(ctx, c, "/garage", "layout", "apply", "--version", "1"); err != nil {
		return nil, nil, err
	}

	accessKey, secretKey, err := createKey(ctx, c)
	if err != nil {
		return nil, nil, err
	}

	if err := execGarage(ctx, c, "/garage", "bucket", "create", "studio-uploads"); err != nil {
		return nil, nil, err
	}
	if err := execGarage(ctx, c, "/garage", "bucket", "allow", "--read", "--write", "--owner", "--key", "test-key", "studio-uploads"); err != nil {
		return nil, nil, err
	}

	host, err := c.Host(ctx)
	if err != nil {
		return nil, nil, err
	}
	port, err := c.MappedPort(ctx, "3900")
	if err != nil {
		return nil, nil, err
	}

	store, err := NewS3Store(config.S3Config{
		Endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
		Region:    "garage",
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    "studio-uploads",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create store: %w", err)
	}

	success = true
	return c, store, nil
}

func execGarage(ctx context.Context, c testcontainers.Container, cmd ...string) error {
	code, reader, err := c.Exec(ctx, cmd)
	if err != nil {
		return fmt.Errorf("%s exec error: %w", strings.Join(cmd[1:], " "), err)
	}
	if code != 0 {
		output, _ := io.ReadAll(reader)
		return fmt.Errorf("%s exited with %d: %s", strings.Join(cmd[1:], " "), code, output)
	}
	return nil
}

func getNodeID(ctx context.Context, c testcontainers.Container) (string, error) {
	_, reader, err := c.Exec(ctx, []string{"/garage", "status"})
	if err != nil {
		return "", fmt.Errorf("failed to get status: %w", err)
	}
	output, _ := io.ReadAll(reader)

	for line := range strings.Lines(string(output)) {
		fields := strings.Fields(line)
		if len(fields) >= 1 && len(fields[0]) == 16 {
			if _, err := hex.DecodeString(fields[0]); err == nil {
				return fields[0], nil
			}
		}
	}
	return "", fmt.Errorf("could not parse node ID from status output")
}

func createKey(ctx context.Context, c testcontainers.Container) (accessKey, secretKey string, err error) {
	_, reader, err := c.Exec(ctx, []string{"/garage", "key", "create", "test-key"})
	if err != nil {
		return "", "", fmt.Errorf("failed to create key: %w", err)
	}
	output, _ := io.ReadAll(reader)

	for line := range strings.Lines(string(output)) {
		if _, v, ok := strings.Cut(line, "Key ID:"); ok {
			accessKey = strings.TrimSpace(v)
		}
		if _, v, ok := strings.Cut(line, "Secret key:"); ok {
			secretKey = strings.TrimSpace(v)
		}
	}

	if accessKey == "" || secretKey == "" {
		return "", "", fmt.Errorf("failed to parse key output:\n%s", string(output))
	}

	return accessKey, secretKey, nil
}

var testStore *S3Store

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, store, err := setupTest(ctx)
	if err != nil {
		panic(err)
	}

	testStore = store
	code := m.Run()
	container.Terminate(ctx)
	os.Exit(code)
}

func TestObjectStorageCRUD(t *testing.T) {
	ctx := context.Background()
	key := "job-applications/level-designer_Ada_1700000000000.pdf"
	content := "%PDF-1.7 hello"

	if err := testStore.Save(ctx, key, strings.NewReader(content)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !testStore.Exists(ctx, key) {
		t.Fatal("object should exist after save")
	}

	rc, err := testStore.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("could not read object: %v", err)
	}
	if string(got) != content {
		t.Errorf("expected %q, got %q", content, string(got))
	}

	if err := testStore.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if testStore.Exists(ctx, key) {
		t.Error("object should be gone after delete")
	}
}

func TestObjectStorageURL(t *testing.T) {
	got := testStore.URL("media/cover.webp")
	if !strings.HasSuffix(got, "/studio-uploads/media/cover.webp") {
		t.Errorf("unexpected url %q", got)
	}
}
