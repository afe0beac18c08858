package tui

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/chromaseek/internal/controller"
	"github.com/csheth/chromaseek/internal/files"
	"github.com/csheth/chromaseek/internal/page"
)

// workflowDoneMsg reports that a controller workflow settled. The controller
// already rendered the outcome; the model only repaints.
type workflowDoneMsg struct {
	kind jobKind
}

type exportDoneMsg struct {
	path string
	err  error
}

// changedMsg arrives whenever the controller's display state moved.
type changedMsg struct{}

type dropMsg struct {
	paths []string
}

func startJob(ctrl *controller.Controller) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		ctrl.Start(ctx)
		return workflowDoneMsg{kind: jobKindStart}, nil
	}
}

func uploadPathsJob(ctrl *controller.Controller, paths []string) jobRunner {
	batch := append([]string(nil), paths...)
	return func(ctx context.Context) (tea.Msg, error) {
		for _, path := range batch {
			info, err := files.Inspect(path)
			if err != nil {
				log.Printf("[tui] inspect %s: %v", path, err)
				continue
			}
			if info.IsPDF {
				log.Printf("[tui] uploading %s (%d bytes, %d pages)", info.Name, info.Bytes, info.Pages)
			}
		}
		ctrl.UploadPaths(ctx, batch)
		return workflowDoneMsg{kind: jobKindUpload}, nil
	}
}

func ingestJob(ctrl *controller.Controller) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		ctrl.Ingest(ctx)
		return workflowDoneMsg{kind: jobKindIngest}, nil
	}
}

func askJob(ctrl *controller.Controller, question string, topK int) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		err := ctrl.Ask(ctx, question, topK)
		return workflowDoneMsg{kind: jobKindAsk}, err
	}
}

func statsJob(ctrl *controller.Controller) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		ctrl.RefreshStats(ctx)
		return workflowDoneMsg{kind: jobKindStats}, nil
	}
}

func resetJob(ctrl *controller.Controller) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		ctrl.ResetIndex(ctx)
		return workflowDoneMsg{kind: jobKindReset}, nil
	}
}

func exportJob(ctrl *controller.Controller, dir string, now time.Time) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		path := filepath.Join(dir, exportFileName(now))
		err := page.WriteFile(path, ctrl.Snapshot(), now)
		return exportDoneMsg{path: path, err: err}, err
	}
}

func exportFileName(now time.Time) string {
	return fmt.Sprintf("chromaseek-%s.html", now.Format("20060102-150405"))
}

func listenForChanges(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func listenForDrops(drops <-chan []string) tea.Cmd {
	if drops == nil {
		return nil
	}
	return func() tea.Msg {
		paths, ok := <-drops
		if !ok {
			return nil
		}
		return dropMsg{paths: paths}
	}
}
