package storage

import (
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
)

type S3Storage struct {
	Storage
	s3Client *s3.S3
}

func NewS3Storage(bucket *Bucket) (ReferenceAPI, error) {
	svc, err := bucket.CreateSVC()
	if err != nil {
		return nil, err
	}
	return &S3Storage{
		Storage: Storage{
			Bucket: *bucket,
		},
		s3Client: svc,
	}, nil
}

// Identities lists the "directories" right below the bucket prefix
func (s *S3Storage) Identities() (result []string, err error) {
	prefix := s.Bucket.GetRemotePath("")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	err = s.s3Client.ListObjectsV2Pages(&s3.ListObjectsV2Input{
		Bucket:    &s.Bucket.Name,
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, p := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.StringValue(p.Prefix), prefix), "/")
			if name != "" && !isHidden(name) {
				result = append(result, name)
			}
		}
		return true
	})
	// S3 returns keys in UTF-8 binary order, same as os.ReadDir on the disk storage
	return result, err
}

func (s *S3Storage) Images(dir string) (result []string, err error) {
	prefix := s.Bucket.GetRemotePath(dir + "/")
	err = s.s3Client.ListObjectsV2Pages(&s3.ListObjectsV2Input{
		Bucket:    &s.Bucket.Name,
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, o := range page.Contents {
			name := strings.TrimPrefix(aws.StringValue(o.Key), prefix)
			// Skip the "folder" placeholder objects some clients create
			if name == "" || isHidden(name) {
				continue
			}
			result = append(result, name)
		}
		return true
	})
	return result, err
}

func (s *S3Storage) Load(dir, name string, writer io.Writer) (int64, error) {
	resp, err := s.s3Client.GetObject(&s3.GetObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    aws.String(s.Bucket.GetRemotePath(dir + "/" + name)),
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(writer, resp.Body)
}
