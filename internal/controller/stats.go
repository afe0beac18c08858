package controller

import (
	"context"
	"log"
	"strconv"

	"github.com/csheth/chromaseek/internal/api"
	"github.com/csheth/chromaseek/internal/render"
)

const (
	msgStatsFailed = "Failed to load stats"
	workflowStats  = "stats"
)

// RefreshStats reloads the corpus summary and rebuilds the document list.
// On failure every displayed value is kept.
func (c *Controller) RefreshStats(ctx context.Context) {
	started := c.now()
	res, err := c.backend.Stats(ctx)
	c.observe(workflowStats, started, err)
	if err != nil {
		log.Printf("[controller] stats failed: %v", err)
		c.notifier.Notify(msgStatsFailed, false)
		return
	}
	docs := append([]api.FileRecord(nil), res.PDFs...)
	list := render.FileList(docs)
	vectors := strconv.Itoa(res.VectorCount())
	count := strconv.Itoa(len(docs))
	c.view.update(func(r *Regions) {
		r.VectorCount = vectors
		r.DocList = list
		r.DocCount = count
		r.Docs = docs
	})
}
