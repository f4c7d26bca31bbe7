package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var Conf Config

func Load() {
	var err error

	_, err = os.Stat(".env")

	if err != nil {
		log.Println(".env file does not exist\nReading from the environment directly")
	} else {
		err = godotenv.Load(".env")

		if err != nil {
			log.Fatal(err)
		}
	}

	Conf = Config{
		Environment:    stringEnv("ENVIRONMENT", "prod"),
		LogFolder:      os.Getenv("LOG_FOLDER"),
		LogLevel:       stringEnv("LOG_LEVEL", "info"),
		Port:           stringEnv("PORT", "8080"),
		RecorderURL:    stringEnv("RECORDER_URL", "http://localhost:5423"),
		StatusInterval: durationEnv("STATUS_INTERVAL", time.Second),
		ListInterval:   durationEnv("LIST_INTERVAL", 5*time.Second),
		ListRetryDelay: durationEnv("LIST_RETRY_DELAY", time.Second),
		RequestTimeout: durationEnv("REQUEST_TIMEOUT", 10*time.Second),
		SplitDuration:  intEnv("SPLIT_DURATION", 5),
		S3Config: S3{
			Bucket:      os.Getenv("S3_BUCKET_NAME"),
			AccessKey:   os.Getenv("S3_ACCESS_KEY"),
			SecretKey:   os.Getenv("S3_SECRET_KEY"),
			Region:      os.Getenv("S3_REGION"),
			EndpointUrl: os.Getenv("S3_ENDPOINT_URL"),
		},
	}
}

func GetConfig() Config {
	return Conf
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("invalid %s %q, using %s\n", key, v, def)
		return def
	}
	return d
}

func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("invalid %s %q, using %d\n", key, v, def)
		return def
	}
	return n
}
