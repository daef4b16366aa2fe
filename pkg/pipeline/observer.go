package pipeline

import (
	"sync"

	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/slide"
)

// Observer receives progress snapshots. Calls for one document are
// serialized and arrive in the order the snapshots were taken.
type Observer interface {
	OnProgress(docID string, p slide.Progress)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(docID string, p slide.Progress)

func (f ObserverFunc) OnProgress(docID string, p slide.Progress) { f(docID, p) }

// LogObserver writes every snapshot to the package logger
type LogObserver struct{}

func (LogObserver) OnProgress(docID string, p slide.Progress) {
	logx.WithFields(logx.Fields{
		"document_id": docID,
		"stage":       p.Stage,
		"current":     p.Current,
		"total":       p.Total,
	}).Infof("progress %.0f%%", p.Percent())
}

// tracker is the progress record of one document
type tracker struct {
	docID     string
	observers []Observer

	mu   sync.Mutex
	last slide.Progress
}

func newTracker(docID string, observers []Observer) *tracker {
	return &tracker{docID: docID, observers: observers, last: slide.Progress{Stage: slide.StageIdle}}
}

func (t *tracker) emit(p slide.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = p
	for _, o := range t.observers {
		o.OnProgress(t.docID, p)
	}
}

func (t *tracker) snapshot() slide.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
