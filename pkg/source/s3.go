package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Config tunes the S3 transport. Credentials come from the default AWS
// provider chain (environment, shared config, instance role) unless
// Anonymous is set.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Anonymous bool   `yaml:"anonymous"`
}

// OpenS3 downloads s3://bucket/key into a temporary file and returns it as
// a Source.
func OpenS3(ctx context.Context, spec string, cfg S3Config) (Source, error) {
	u, err := url.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", ErrFetch, spec, err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: %q needs s3://bucket/key", ErrFetch, spec)
	}

	sess := session.Must(session.NewSession(awsConfig(cfg)))

	f, err := os.CreateTemp("", "gocdf-s3-*.cdf")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	dl := s3manager.NewDownloader(sess)
	if _, err := dl.DownloadWithContext(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("%w: s3://%s/%s: %v", ErrFetch, bucket, key, err)
	}
	return tempSource(f, spec)
}

// awsConfig maps S3Config onto the SDK config. Credentials are left unset
// for authenticated access so the SDK's default provider chain applies.
func awsConfig(cfg S3Config) *aws.Config {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}
	awsCfg := &aws.Config{Region: aws.String(region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.Anonymous {
		awsCfg.Credentials = credentials.AnonymousCredentials
	}
	return awsCfg
}
