package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	objects map[string][]byte
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestBackupService_Backup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.activeBattle(t)

	fake := &fakeS3{objects: map[string][]byte{}}
	backup := &BackupService{
		store:    env.store,
		s3Client: fake,
		bucket:   "saves",
		prefix:   "backups",
		now:      func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) },
	}

	keys, err := backup.Backup(ctx)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	want := []string{
		"backups/20240501T123000Z/battles.json",
		"backups/20240501T123000Z/users.json",
	}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("Backup() keys = %v, want %v", keys, want)
	}

	var battles []map[string]any
	if err := json.Unmarshal(fake.objects["saves/backups/20240501T123000Z/battles.json"], &battles); err != nil {
		t.Fatalf("uploaded battles are not JSON: %v", err)
	}
	if len(battles) != 1 || battles[0]["status"] != "active" {
		t.Errorf("uploaded battles = %v", battles)
	}
}

func TestBackupService_UploadError(t *testing.T) {
	env := newTestEnv(t)
	backup := &BackupService{
		store:    env.store,
		s3Client: &fakeS3{err: errors.New("access denied")},
		bucket:   "saves",
		now:      time.Now,
	}

	if _, err := backup.Backup(context.Background()); err == nil {
		t.Error("Backup() error = nil, want upload error")
	}
}
