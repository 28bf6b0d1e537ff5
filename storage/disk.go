package storage

import (
	"io"
	"os"
	"path/filepath"
)

type DiskStorage struct {
	Storage
	BasePath string
}

func NewDiskStorage(bucket *Bucket) ReferenceAPI {
	return &DiskStorage{
		BasePath: bucket.Path,
		Storage: Storage{
			Bucket: *bucket,
		},
	}
}

func (s *DiskStorage) getFullPath(path ...string) string {
	return filepath.Join(append([]string{s.BasePath}, path...)...)
}

func (s *DiskStorage) Identities() (result []string, err error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		return nil, err
	}
	// os.ReadDir sorts by file name
	for _, e := range entries {
		if isHidden(e.Name()) {
			continue
		}
		info, err := os.Stat(s.getFullPath(e.Name())) // follows symlinks
		if err != nil || !info.IsDir() {
			continue
		}
		result = append(result, e.Name())
	}
	return result, nil
}

func (s *DiskStorage) Images(dir string) (result []string, err error) {
	entries, err := os.ReadDir(s.getFullPath(dir))
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || isHidden(e.Name()) {
			continue
		}
		result = append(result, e.Name())
	}
	return result, nil
}

func (s *DiskStorage) Load(dir, name string, writer io.Writer) (int64, error) {
	file, err := os.Open(s.getFullPath(dir, name))
	if err != nil {
		return 0, err
	}
	result, err := io.Copy(writer, file)
	file.Close()
	return result, err
}
