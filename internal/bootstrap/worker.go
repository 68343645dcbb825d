package bootstrap

import (
	"context"
	"sync"

	"lexflow_server/adapter/in/worker"
	"lexflow_server/config"
	"lexflow_server/internal/stream"
	"lexflow_server/pkg/logger"
)

// Worker consumes the classification and reclassification streams.
type Worker struct {
	consumer *stream.Consumer
	handler  *worker.Handler
	deps     *Dependencies
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "lexflow-worker",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}

	classifyProcessor := worker.NewClassifyProcessor(deps.Classifier)
	reclassifyProcessor := worker.NewReclassifyProcessor(deps.Reclassifier)
	handler := worker.NewHandler(classifyProcessor, reclassifyProcessor)

	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		consumer: stream.NewConsumer(deps.Stream, cfg.WorkerID),
		handler:  handler,
		deps:     deps,
		ctx:      ctx,
		cancel:   cancel,
	}, cleanup, nil
}

// Start blocks until Stop is called.
func (w *Worker) Start() {
	streams := []string{stream.StreamClassify, stream.StreamSweep}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		err := w.consumer.Run(w.ctx, streams, func(id string, data []byte) error {
			return w.handler.Handle(w.ctx, id, data)
		})
		if err != nil && err != context.Canceled {
			logger.WithError(err).Error("stream consumer stopped")
		}
	}()

	logger.Info("worker consuming %d streams as %s", len(streams), w.deps.Config.WorkerID)
	<-w.ctx.Done()
}

func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
}
