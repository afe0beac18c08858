package controller

import (
	"context"
	"fmt"
	"log"

	"github.com/csheth/chromaseek/internal/api"
	"github.com/csheth/chromaseek/internal/files"
	"github.com/csheth/chromaseek/internal/render"
)

const (
	msgUploadFailed = "Upload failed"
	workflowUpload  = "upload"
)

// Upload sends files in one request. An empty list does nothing.
func (c *Controller) Upload(ctx context.Context, batch []api.File) {
	if len(batch) == 0 {
		return
	}
	c.upload(ctx, func() ([]api.File, error) { return batch, nil })
}

// UploadPaths reads the files from disk and uploads them. Read failures are
// reported like request failures.
func (c *Controller) UploadPaths(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	c.upload(ctx, func() ([]api.File, error) { return files.Load(paths) })
}

func (c *Controller) upload(ctx context.Context, load func() ([]api.File, error)) {
	succeeded := false
	c.withPhase(PhaseUploading, func() {
		started := c.now()
		batch, err := load()
		var res api.UploadResult
		if err == nil {
			res, err = c.backend.Upload(ctx, batch)
		}
		elapsed := c.now().Sub(started)
		c.observe(workflowUpload, started, err)
		if err != nil {
			log.Printf("[controller] upload failed: %v", err)
			c.notifier.Notify(msgUploadFailed, false)
			return
		}
		markup := render.UploadList(res.Saved)
		c.view.update(func(r *Regions) {
			r.UploadList = markup
		})
		count := res.Total
		if count == 0 {
			count = len(res.Saved)
		}
		c.notifier.Notify(fmt.Sprintf("Uploaded %d file(s) in %d ms", count, millis(elapsed)), true)
		succeeded = true
	})
	if succeeded {
		c.RefreshStats(ctx)
	}
}
