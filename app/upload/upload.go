package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"recpanel/apperror"
	"recpanel/client"
	"recpanel/config"
	"recpanel/logger"
	"recpanel/metrics"
)

// Source is where recordings are fetched from before archiving.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Download(ctx context.Context, name string) (*client.Download, error)
}

type Uploader struct {
	mu          sync.Mutex
	isUploading bool
	uploadName  string

	isRecording func() bool
	source      Source
	hostname    string
	logger      *logger.Logger
	uploader    *s3manager.Uploader
}

func NewUploader(logger *logger.Logger, source Source, isRecording func() bool) (*Uploader, error) {
	s3config := config.GetConfig().S3Config

	if !s3config.Enabled() {
		return nil, errors.New("no archive bucket configured")
	}

	awsConfig := &aws.Config{
		Region:           aws.String(s3config.Region),
		Credentials:      credentials.NewStaticCredentials(s3config.AccessKey, s3config.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	}

	if s3config.EndpointUrl != "" {
		awsConfig.Endpoint = aws.String(s3config.EndpointUrl)
	}

	sess, err := session.NewSession(awsConfig)

	if err != nil {
		return nil, err
	}

	hostname, err := os.Hostname()

	if err != nil {
		return nil, err
	}

	return &Uploader{
		isRecording: isRecording,
		source:      source,
		hostname:    hostname,
		logger:      logger,
		uploader:    s3manager.NewUploader(sess),
	}, nil
}

func (u *Uploader) UploadStats() (bool, string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.isUploading, u.uploadName
}

func (u *Uploader) begin() error {
	if u.isRecording != nil && u.isRecording() {
		u.logger.LogError(errors.New("recording in progress"), "Cannot upload recording while recording is in progress")
		return apperror.ServiceUnavailable.SetMessage("Cannot upload recording while recording is in progress")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.isUploading {
		u.logger.LogError(errors.New("upload in progress"), "Cannot upload recording while another upload is in progress")
		return apperror.ServiceUnavailable.SetMessage("Cannot upload recording while another upload is in progress")
	}

	u.isUploading = true
	return nil
}

func (u *Uploader) end() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.isUploading = false
	u.uploadName = ""
}

func (u *Uploader) setName(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploadName = name
}

// UploadRecording streams one recording from the recorder into the bucket.
func (u *Uploader) UploadRecording(ctx context.Context, filename string) error {
	if err := u.begin(); err != nil {
		return err
	}
	defer u.end()

	return u.archive(ctx, filename)
}

// UploadRecordings archives every recording the recorder lists. Failures
// of single files are logged and skipped.
func (u *Uploader) UploadRecordings(ctx context.Context) error {
	if err := u.begin(); err != nil {
		return err
	}
	defer u.end()

	names, err := u.source.List(ctx)

	if err != nil {
		u.logger.LogError(err, "Error listing recordings", "function", "UploadRecordings")
		return err
	}

	u.logger.LogInfo("Uploading All Videos to S3", "count", len(names))

	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := u.archive(ctx, name); err != nil {
			continue
		}
	}

	return nil
}

func (u *Uploader) archive(ctx context.Context, filename string) (err error) {
	defer func() { metrics.ObserveArchive(err) }()

	u.setName(filename)
	u.logger.LogInfo("Uploading file to S3", "file_name", filename)

	d, err := u.source.Download(ctx, filename)

	if err != nil {
		u.logger.LogError(err, "Error fetching recording", "file_name", filename)
		return err
	}

	defer func() { _ = d.Body.Close() }()

	contentType := d.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}

	_, err = u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(config.GetConfig().S3Config.Bucket),
		Key:         aws.String(fmt.Sprintf("%s/videos/%s", u.hostname, filename)),
		ACL:         aws.String("private"),
		Body:        d.Body,
		ContentType: aws.String(contentType),
	})

	if err != nil {
		u.logger.LogError(err, "Error uploading file to S3", "file_name", filename)
		return apperror.ServerError.Wrap(err)
	}

	u.logger.LogInfo("Successful upload to S3", "file_name", filename)
	return nil
}

// UploadLogs ships every log file but the newest, which is still being
// written, and removes the shipped copies.
func (u *Uploader) UploadLogs(ctx context.Context) {
	logFolder := config.GetConfig().LogFolder

	if logFolder == "" {
		return
	}

	bucket := config.GetConfig().S3Config.Bucket
	u.logger.LogInfo("Uploading logs to S3", "bucket", bucket, "folder", logFolder)

	dir, err := os.Open(logFolder)

	if err != nil {
		u.logger.LogError(err, "Error opening log folder", "folder", logFolder)
		return
	}

	defer func() { _ = dir.Close() }()

	filenames, err := dir.Readdirnames(0)

	if err != nil {
		u.logger.LogError(err, "Error reading log folder", "folder", logFolder)
		return
	}

	if len(filenames) < 2 {
		return
	}

	sort.Strings(filenames)
	filenames = filenames[:len(filenames)-1]

	for _, filename := range filenames {
		localFilename := filepath.Join(logFolder, filename)
		f, err := os.ReadFile(localFilename)

		if err != nil {
			u.logger.LogError(err, "Error reading log file", "filename", localFilename)
			continue
		}

		_, err = u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(fmt.Sprintf("%s/logs/%s", u.hostname, filename)),
			Body:        bytes.NewReader(f),
			ContentType: aws.String("text/plain"),
		})

		if err != nil {
			u.logger.LogError(err, "Error uploading log file", "filename", filename)
			continue
		}

		if err := os.Remove(localFilename); err != nil {
			u.logger.LogError(err, "Error removing log file", "filename", filename)
		}
	}
}
