// Package s3 stores each student as one JSON document in an S3-compatible
// bucket (AWS S3 or MinIO), under <prefix><id>.json.
//
// This is the hosted document-store backend. Objects carry no ordering,
// so LoadAll sorts by createdAt (then id) to give callers a stable list.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

var _ storage.Storage = (*Store)(nil)

const (
	defaultRegion = "us-east-1"
	suffix        = ".json"
)

// Config holds construction parameters.
type Config struct {
	Bucket    string
	Region    string // default us-east-1
	Endpoint  string // optional; custom endpoint such as MinIO
	Prefix    string // key prefix, e.g. "students/"
	PathStyle bool
}

// Store implements storage.Storage on a single bucket.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds a Store from cfg. Credentials come from the default AWS
// chain (environment, shared config, instance role).
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3.New: bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("s3.New: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		// MinIO and older gateways reject the default CRC trailers.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *s3.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *Store) key(id string) string { return s.prefix + id + suffix }

func (s *Store) LoadAll(ctx context.Context) ([]types.Student, error) {
	students := make([]types.Student, 0)

	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("LoadAll: list: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, suffix) {
				continue
			}
			student, err := s.get(ctx, key)
			if err != nil {
				if isNotFound(err) {
					// deleted between List and Get
					continue
				}
				return nil, fmt.Errorf("LoadAll: %w", err)
			}
			students = append(students, student)
		}
	}

	sort.SliceStable(students, func(i, j int) bool {
		if !students[i].CreatedAt.Equal(students[j].CreatedAt) {
			return students[i].CreatedAt.Before(students[j].CreatedAt)
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func (s *Store) Insert(ctx context.Context, student types.Student) (types.Student, error) {
	student.ID = uuid.NewString()
	if err := s.put(ctx, student); err != nil {
		return types.Student{}, fmt.Errorf("Insert: %w", err)
	}
	return student, nil
}

func (s *Store) Replace(ctx context.Context, id string, student types.Student) (types.Student, error) {
	if err := s.exists(ctx, id); err != nil {
		return types.Student{}, fmt.Errorf("Replace: %w", err)
	}
	student.ID = id
	if err := s.put(ctx, student); err != nil {
		return types.Student{}, fmt.Errorf("Replace: %w", err)
	}
	return student, nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.exists(ctx, id); err != nil {
		return fmt.Errorf("Remove: %w", err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	}); err != nil {
		return fmt.Errorf("Remove: delete object: %w", err)
	}
	return nil
}

// exists returns storage.ErrNotFound (wrapped) when the document is missing.
func (s *Store) exists(ctx context.Context, id string) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
		return fmt.Errorf("head object: %w", err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, student types.Student) error {
	body, err := json.Marshal(student)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(student.ID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (types.Student, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return types.Student{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return types.Student{}, fmt.Errorf("read %s: %w", key, err)
	}

	var student types.Student
	if err := json.Unmarshal(body, &student); err != nil {
		return types.Student{}, fmt.Errorf("decode %s: %w", key, err)
	}
	student.ID = strings.TrimSuffix(strings.TrimPrefix(key, s.prefix), suffix)
	return student, nil
}

func isNotFound(err error) bool {
	var (
		nf  *s3types.NotFound
		nsk *s3types.NoSuchKey
		re  *awshttp.ResponseError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &nsk):
		return true
	case errors.As(err, &re):
		return re.HTTPStatusCode() == http.StatusNotFound
	}
	return false
}
