package main

import (
	"log"

	tactivity "go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/yourorg/chunkmill/internal/activities"
	"github.com/yourorg/chunkmill/internal/cli"
	"github.com/yourorg/chunkmill/internal/config"
	znmetrics "github.com/yourorg/chunkmill/internal/metrics"
	"github.com/yourorg/chunkmill/internal/workflow"
)

// worker serves the unit workflows started by the temporal pool of wordcount and intsort.
func main() {
	cfg := config.Defaults()
	zl := cli.NewLogger(config.Getenv("LOG_LEVEL", "info"))
	defer zl.Sync()

	znmetrics.Init()
	metricsAddr := config.Getenv("METRICS_ADDR", ":9090")
	go func() {
		if err := znmetrics.Serve(metricsAddr); err != nil {
			zl.Warn("metrics server", zap.Error(err))
		}
	}()

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalHost, Namespace: cfg.TemporalNamespace})
	if err != nil {
		log.Fatal("temporal client:", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalQueue, worker.Options{})
	acts := activities.New(activities.Config{Logger: zl})
	w.RegisterActivityWithOptions(acts.ProcessUnit, tactivity.RegisterOptions{Name: workflow.UnitActivityName})
	w.RegisterWorkflow(workflow.UnitWorkflow)

	zl.Info("worker started", zap.String("namespace", cfg.TemporalNamespace), zap.String("taskQueue", cfg.TemporalQueue), zap.String("metrics", metricsAddr))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal("worker failed:", err)
	}
}
