package controller

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"recpanel/app/panel"
	"recpanel/apperror"
	"recpanel/client"
	"recpanel/logger"
	"recpanel/models"
	"recpanel/web/helper"
	"recpanel/web/view"
)

// Dispatcher is the recording status controller driven by the panel.
type Dispatcher interface {
	Panel() *panel.Panel
	StartRecording(ctx context.Context, splitDuration int) error
	StopRecording(ctx context.Context) error
	RefreshVideos(ctx context.Context) error
}

type Archiver interface {
	UploadRecording(ctx context.Context, filename string) error
	UploadRecordings(ctx context.Context) error
	UploadStats() (bool, string)
}

type Downloader interface {
	Download(ctx context.Context, name string) (*client.Download, error)
}

type Live interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type Options struct {
	SplitDuration int
	// Archiver is nil when no bucket is configured.
	Archiver Archiver
}

type Controller struct {
	logger     *logger.Logger
	app        Dispatcher
	downloader Downloader
	live       Live
	opts       Options
}

func NewController(app Dispatcher, downloader Downloader, live Live, logger *logger.Logger, opts Options) *Controller {
	return &Controller{
		app:        app,
		downloader: downloader,
		live:       live,
		logger:     logger,
		opts:       opts,
	}
}

// commandContext outlives the browser request so a command is never cut
// short by a page navigation; the client timeout still bounds it.
func commandContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (c *Controller) splitDuration(r *http.Request) (int, error) {
	raw := r.FormValue("split_duration")
	if raw == "" {
		return c.opts.SplitDuration, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperror.InvalidRequest.SetMessage("split_duration must be a positive integer")
	}
	return n, nil
}

func (c *Controller) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := view.Page{SplitDuration: c.opts.SplitDuration, Snapshot: c.app.Panel().Snapshot()}
	if err := view.RenderPage(w, page); err != nil {
		c.logger.LogError(err, "Error rendering panel page")
	}
}

func (c *Controller) Fragment(w http.ResponseWriter, _ *http.Request) {
	html, err := view.RenderFragment(c.app.Panel().Snapshot())
	if err != nil {
		c.logger.LogError(err, "Error rendering panel fragment")
		helper.ReturnFailure(w, apperror.ServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

func (c *Controller) PanelState(w http.ResponseWriter, _ *http.Request) {
	helper.ReturnSuccess(w, c.app.Panel().Snapshot())
}

func (c *Controller) StartRecording(w http.ResponseWriter, r *http.Request) {
	split, err := c.splitDuration(r)
	if err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	if err := c.app.StartRecording(commandContext(r), split); err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	helper.ReturnSuccess(w, c.app.Panel().Snapshot())
}

func (c *Controller) StopRecording(w http.ResponseWriter, r *http.Request) {
	if err := c.app.StopRecording(commandContext(r)); err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	helper.ReturnSuccess(w, c.app.Panel().Snapshot())
}

// SubmitStart handles the panel form; the outcome shows up on the panel.
func (c *Controller) SubmitStart(w http.ResponseWriter, r *http.Request) {
	split, err := c.splitDuration(r)
	if err == nil {
		err = c.app.StartRecording(commandContext(r), split)
	}
	if err != nil {
		c.logger.LogInfo("start from panel form failed", "error", err.Error())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *Controller) SubmitStop(w http.ResponseWriter, r *http.Request) {
	if err := c.app.StopRecording(commandContext(r)); err != nil {
		c.logger.LogInfo("stop from panel form failed", "error", err.Error())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *Controller) RefreshVideos(w http.ResponseWriter, r *http.Request) {
	if err := c.app.RefreshVideos(r.Context()); err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	helper.ReturnSuccess(w, c.app.Panel().Snapshot())
}

func (c *Controller) Download(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	d, err := c.downloader.Download(r.Context(), name)
	if err != nil {
		c.logger.LogError(err, "Error downloading recording", "file_name", name)
		helper.ReturnFailure(w, err)
		return
	}
	defer func() { _ = d.Body.Close() }()

	contentType := d.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": name})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	if d.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(d.ContentLength, 10))
	}

	if _, err := io.Copy(w, d.Body); err != nil {
		c.logger.LogWarning(err, "Download interrupted", "file_name", name)
	}
}

func (c *Controller) archiver() (Archiver, error) {
	if c.opts.Archiver == nil {
		return nil, apperror.ServiceUnavailable.SetMessage("Archiving is not configured")
	}
	return c.opts.Archiver, nil
}

func (c *Controller) ArchiveStatus(w http.ResponseWriter, _ *http.Request) {
	a, err := c.archiver()
	if err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	uploading, name := a.UploadStats()
	helper.ReturnSuccess(w, models.ArchiveStatus{Uploading: uploading, Filename: name})
}

func (c *Controller) ArchiveRecording(w http.ResponseWriter, r *http.Request) {
	a, err := c.archiver()
	if err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	name := mux.Vars(r)["name"]
	c.logger.LogInfo("archive request received", "file_name", name)

	if err := a.UploadRecording(r.Context(), name); err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	helper.ReturnSuccess(w, nil)
}

func (c *Controller) ArchiveRecordings(w http.ResponseWriter, r *http.Request) {
	a, err := c.archiver()
	if err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	c.logger.LogInfo("archive all request received")

	if err := a.UploadRecordings(r.Context()); err != nil {
		helper.ReturnFailure(w, err)
		return
	}

	helper.ReturnSuccess(w, nil)
}

func (c *Controller) LiveUpdates(w http.ResponseWriter, r *http.Request) {
	c.live.ServeWS(w, r)
}
