package binary

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Source opens the content of a remote release asset.
type Source interface {
	Open(ctx context.Context, u *url.URL) (io.ReadCloser, error)
}

func defaultSources(cfg Config) map[string]Source {
	var h = &httpSource{client: http.DefaultClient}
	return map[string]Source{
		"http":  h,
		"https": h,
		"s3":    &s3Source{cfg: cfg},
		"gs":    &gcsSource{},
	}
}

// openRemote dispatches |rawURL| to the Source registered for its scheme.
func openRemote(ctx context.Context, sources map[string]Source, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing release URL")
	}
	src, ok := sources[u.Scheme]
	if !ok {
		return nil, errors.Errorf("unsupported release URL scheme %q", u.Scheme)
	}
	return src.Open(ctx, u)
}

type httpSource struct {
	client *http.Client
}

func (s *httpSource) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errors.Errorf("unexpected HTTP status %s", resp.Status)
	}
	return resp.Body, nil
}

// s3Source reads s3://bucket/key URLs.
type s3Source struct {
	cfg    Config
	client *s3.S3
	mu     sync.Mutex
}

func (s *s3Source) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	client, err := s.s3Client()
	if err != nil {
		return nil, err
	}
	var getObj = s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(strings.TrimPrefix(u.Path, "/")),
	}
	resp, err := client.GetObjectWithContext(ctx, &getObj)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (s *s3Source) s3Client() (*s3.S3, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	var awsConfig = aws.NewConfig()
	if s.cfg.S3Region != "" {
		awsConfig.WithRegion(s.cfg.S3Region)
	}
	if s.cfg.S3Endpoint != "" {
		awsConfig.WithEndpoint(s.cfg.S3Endpoint)
		// Bucket-named virtual hosts are not compatible with explicit endpoints.
		awsConfig.WithS3ForcePathStyle(true)
	}

	awsSession, err := session.NewSessionWithOptions(session.Options{
		Profile:           s.cfg.AWSProfile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, errors.Wrap(err, "constructing S3 session")
	}

	log.WithFields(log.Fields{
		"endpoint": s.cfg.S3Endpoint,
		"profile":  s.cfg.AWSProfile,
		"region":   s.cfg.S3Region,
	}).Debug("constructed new aws.Session")

	s.client = s3.New(awsSession, awsConfig)
	return s.client, nil
}

// gcsSource reads gs://bucket/object URLs using default credentials.
type gcsSource struct {
	client *storage.Client
	mu     sync.Mutex
}

func (s *gcsSource) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	client, err := s.gcsClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.Bucket(u.Host).Object(strings.TrimPrefix(u.Path, "/")).NewReader(ctx)
}

func (s *gcsSource) gcsClient(ctx context.Context) (*storage.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	// The client outlives |ctx|, which only scopes a single download.
	client, err := storage.NewClient(context.WithoutCancel(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "constructing GCS client")
	}
	log.Debug("constructed new GCS client")

	s.client = client
	return s.client, nil
}
