package config

import "time"

type Config struct {
	Environment    string
	LogFolder      string
	LogLevel       string
	Port           string
	RecorderURL    string
	StatusInterval time.Duration
	ListInterval   time.Duration
	ListRetryDelay time.Duration
	RequestTimeout time.Duration
	SplitDuration  int
	S3Config       S3
}

type S3 struct {
	AccessKey   string
	SecretKey   string
	Region      string
	Bucket      string
	EndpointUrl string
}

// Enabled reports whether an archive bucket has been configured.
func (s S3) Enabled() bool {
	return s.Bucket != ""
}
