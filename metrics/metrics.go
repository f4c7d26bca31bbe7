package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recorderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recpanel_recorder_requests_total",
		Help: "Requests issued to the recording server by endpoint and outcome",
	}, []string{
		"endpoint", // status|start|stop|list|download
		"result",   // success|error
	})

	recorderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recpanel_recorder_request_duration_seconds",
		Help:    "Latency of requests to the recording server",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recpanel_commands_total",
		Help: "Start/stop commands dispatched from the panel by outcome",
	}, []string{
		"command", // start|stop
		"result",  // success|failure|refused
	})

	listRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recpanel_video_list_retries_total",
		Help: "Automatic retries of a failed video list refresh",
	})

	recordingGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "recpanel_recording",
		Help: "1 while the last successful status poll reported an active recording",
	})

	archiveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recpanel_archive_uploads_total",
		Help: "Recordings archived to object storage by outcome",
	}, []string{"result"})
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func ObserveRequest(endpoint string, err error, elapsed time.Duration) {
	recorderRequestsTotal.WithLabelValues(endpoint, result(err)).Inc()
	recorderRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func ObserveCommand(command, outcome string) {
	commandsTotal.WithLabelValues(command, outcome).Inc()
}

func ObserveListRetry() {
	listRetriesTotal.Inc()
}

func SetRecording(recording bool) {
	if recording {
		recordingGauge.Set(1)
		return
	}
	recordingGauge.Set(0)
}

func ObserveArchive(err error) {
	archiveTotal.WithLabelValues(result(err)).Inc()
}
