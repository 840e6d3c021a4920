package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const defaultRegion = "us-east-1"

// ErrBucketNotFound reports a configured bucket that does not exist.
var ErrBucketNotFound = errors.New("artifact bucket not found")

// S3Settings is the s3.json schema.
type S3Settings struct {
	ArtifactBucket string `json:"artifactBucket"`
	AWSAccessKey   string `json:"awsAccessKey,omitempty"`
	AWSSecretKey   string `json:"awsSecretKey,omitempty"`
	Region         string `json:"region,omitempty"`
	Endpoint       string `json:"endpoint,omitempty"`
}

// LoadS3Settings reads path. A missing file or an empty bucket returns nil
// settings and no error: object storage is simply not configured.
func LoadS3Settings(path string) (*S3Settings, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read s3 settings: %w", err)
	}
	var settings S3Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse s3 settings: %w", err)
	}
	settings.ArtifactBucket = strings.TrimSpace(settings.ArtifactBucket)
	settings.Region = strings.TrimSpace(settings.Region)
	settings.Endpoint = strings.TrimRight(strings.TrimSpace(settings.Endpoint), "/")
	if settings.ArtifactBucket == "" {
		return nil, nil
	}
	return &settings, nil
}

type s3API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	GetBucketLocation(ctx context.Context, in *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
	s3.ListObjectsV2APIClient
}

// S3Lister lists uploaded artifacts in one bucket.
type S3Lister struct {
	client   s3API
	bucket   string
	region   string
	endpoint string
}

// NewS3Lister builds an S3 client from settings. Static credentials are used
// when both keys are present; otherwise the default AWS credential chain applies.
func NewS3Lister(ctx context.Context, settings S3Settings) (*S3Lister, error) {
	region := settings.Region
	if region == "" {
		region = defaultRegion
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if settings.AWSAccessKey != "" && settings.AWSSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AWSAccessKey, settings.AWSSecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Lister(client, settings), nil
}

func newS3Lister(client s3API, settings S3Settings) *S3Lister {
	return &S3Lister{
		client:   client,
		bucket:   settings.ArtifactBucket,
		region:   settings.Region,
		endpoint: settings.Endpoint,
	}
}

// List returns every object under prefix with its public URL.
func (l *S3Lister) List(ctx context.Context, prefix string) ([]RemoteObject, error) {
	region, err := l.bucketRegion(ctx)
	if err != nil {
		return nil, err
	}
	inRegion := func(o *s3.Options) {
		if l.endpoint == "" {
			o.Region = region
		}
	}

	if _, err := l.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(l.bucket)}, inRegion); err != nil {
		if isMissingBucket(err) {
			return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, l.bucket)
		}
		return nil, fmt.Errorf("s3 head bucket: %w", err)
	}

	var objects []RemoteObject
	paginator := s3.NewListObjectsV2Paginator(l.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(l.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx, inRegion)
		if err != nil {
			return nil, fmt.Errorf("s3 list objects: %w", err)
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if key == "" {
				continue
			}
			objects = append(objects, RemoteObject{Key: key, URL: l.objectURL(region, key)})
		}
	}
	return objects, nil
}

func (l *S3Lister) bucketRegion(ctx context.Context) (string, error) {
	if l.region != "" || l.endpoint != "" {
		if l.region == "" {
			return defaultRegion, nil
		}
		return l.region, nil
	}
	out, err := l.client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: aws.String(l.bucket)})
	if err != nil {
		if isMissingBucket(err) {
			return "", fmt.Errorf("%w: %s", ErrBucketNotFound, l.bucket)
		}
		return "", fmt.Errorf("s3 get bucket location: %w", err)
	}
	switch constraint := string(out.LocationConstraint); constraint {
	case "":
		return defaultRegion, nil
	case "EU":
		return "eu-west-1", nil
	default:
		return constraint, nil
	}
}

func (l *S3Lister) objectURL(region, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	escaped := strings.Join(segments, "/")
	if l.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", l.endpoint, url.PathEscape(l.bucket), escaped)
	}
	return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", region, url.PathEscape(l.bucket), escaped)
}

func isMissingBucket(err error) bool {
	var noSuchBucket *types.NoSuchBucket
	var notFound *types.NotFound
	return errors.As(err, &noSuchBucket) || errors.As(err, &notFound)
}

// SettingsLister reads the settings file on every listing, so credential
// edits apply without a restart. The client is rebuilt only when the
// settings change.
type SettingsLister struct {
	path      string
	newLister func(context.Context, S3Settings) (RemoteLister, error)

	mu       sync.Mutex
	settings S3Settings
	lister   RemoteLister
}

// NewSettingsLister returns a lister backed by the s3.json at path.
func NewSettingsLister(path string) *SettingsLister {
	return &SettingsLister{
		path: path,
		newLister: func(ctx context.Context, settings S3Settings) (RemoteLister, error) {
			return NewS3Lister(ctx, settings)
		},
	}
}

// List returns nothing when object storage is not configured.
func (s *SettingsLister) List(ctx context.Context, prefix string) ([]RemoteObject, error) {
	settings, err := LoadS3Settings(s.path)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, nil
	}

	s.mu.Lock()
	if s.lister == nil || s.settings != *settings {
		lister, err := s.newLister(ctx, *settings)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.lister = lister
		s.settings = *settings
	}
	lister := s.lister
	s.mu.Unlock()

	return lister.List(ctx, prefix)
}
