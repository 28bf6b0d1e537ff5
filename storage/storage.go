package storage

import (
	"fmt"
	"io"
	"strings"
)

// ReferenceAPI is the read-only reference image store: one directory per student, images inside
type ReferenceAPI interface {
	// Identities lists the student directories in a stable (lexical) order
	Identities() ([]string, error)
	// Images lists the files of one student directory
	Images(dir string) ([]string, error)
	Load(dir, name string, writer io.Writer) (int64, error)
	GetBucket() *Bucket
}

type Storage struct {
	Bucket Bucket
}

func (s *Storage) GetBucket() *Bucket {
	return &s.Bucket
}

func New(bucket *Bucket) (ReferenceAPI, error) {
	switch bucket.StorageType {
	case StorageTypeFile:
		return NewDiskStorage(bucket), nil
	case StorageTypeS3:
		return NewS3Storage(bucket)
	}
	return nil, fmt.Errorf("storage type %d unavailable", bucket.StorageType)
}

// IdentityFromDir turns a directory name into the student name it stands for ("Jane_Doe" -> "Jane Doe")
func IdentityFromDir(dir string) string {
	return strings.ReplaceAll(dir, "_", " ")
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
