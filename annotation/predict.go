package annotation

import (
	"context"
	"log"
	"sync"

	"github.com/lewtec/demarcador/internal/detector"
	"github.com/lewtec/demarcador/internal/domain"
)

// PredictOptions controls a batch pre-annotation run
type PredictOptions struct {
	ClassFilter string
	// SkipAnnotated leaves images that already have committed annotations alone
	SkipAnnotated bool
	Jobs          int
}

// PredictResult summarizes a batch run
type PredictResult struct {
	Images    int
	Approved  int
	Discarded int
	Failed    int
}

type prediction struct {
	index      int
	detections []domain.Detection
	err        error
}

// Predict runs det over images with a pool of workers. Detections at or above
// the auto-approve threshold are approved into store, the rest are discarded.
// Only the calling goroutine touches store.
func (p *Project) Predict(ctx context.Context, det detector.Detector, store *domain.Store, images []string, opts PredictOptions) PredictResult {
	var result PredictResult
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = max(p.Config.Detector.Jobs, 1)
	}

	var todo []int
	for i, imageID := range images {
		if opts.SkipAnnotated && store.Has(imageID) {
			log.Printf("Predict: skipping %s, already annotated", imageID)
			continue
		}
		todo = append(todo, i)
	}

	queue := make(chan int)
	results := make(chan prediction)
	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				dets, err := det.Predict(ctx, p.DetectorRequest(images[i], opts.ClassFilter))
				results <- prediction{index: i, detections: dets, err: err}
			}
		}()
	}
	go func() {
		defer close(queue)
		for _, i := range todo {
			select {
			case <-ctx.Done():
				return
			case queue <- i:
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	s := p.NewSession(store)
	threshold := p.Config.Detector.AutoApproveThreshold
	for res := range results {
		imageID := images[res.index]
		result.Images++
		if res.err != nil {
			log.Printf("Predict: %s: %s", imageID, res.err)
			result.Failed++
			continue
		}
		if err := p.OpenImage(s, images, res.index); err != nil {
			log.Printf("Predict: %s", err)
			result.Failed++
			continue
		}
		s.Ingest(res.detections)
		pending := s.Pending()
		for i := len(pending) - 1; i >= 0; i-- {
			if pending[i].Provenance.Confidence < threshold {
				s.DropPending(i)
				result.Discarded++
			}
		}
		approved := s.Approve()
		result.Approved += len(approved)
		if len(approved) > 0 {
			s.CommitCurrent()
		}
		log.Printf("Predict: %s: %d approved", imageID, len(approved))
	}
	return result
}
