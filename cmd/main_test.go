package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/cvranker/internal/adapters/http/api"
	"github.com/okian/cvranker/internal/adapters/repository"
	"github.com/okian/cvranker/internal/analytics"
	app "github.com/okian/cvranker/internal/app"
	"github.com/okian/cvranker/internal/config"
	"github.com/okian/cvranker/pkg/logger"
	"github.com/okian/cvranker/pkg/metrics"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("CVRANKER_ADDR", ":8080")
			_ = os.Setenv("CVRANKER_WORKER_COUNT", "4")
			_ = os.Setenv("CVRANKER_GEMINI_API_KEY", "test-key")
			defer func() {
				_ = os.Unsetenv("CVRANKER_ADDR")
				_ = os.Unsetenv("CVRANKER_WORKER_COUNT")
				_ = os.Unsetenv("CVRANKER_GEMINI_API_KEY")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := app.New(
					app.WithWorkerCount(8),
					app.WithClaimTTL(time.Minute),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			store := repository.NewMemStore()
			svc := app.New(app.WithStore(store))
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then HTTP server should be creatable", func() {
				server := api.NewServer(svc, analytics.New(store), svc)
				convey.So(server, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				registry := prometheus.NewRegistry()
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(registry))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startSystemMetricsUpdater(ctx)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := app.New()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startServiceMetricsUpdater(ctx, svc)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When testing system metrics update", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given main application integration", t, func() {
		convey.Convey("When testing full application setup", func() {
			_ = os.Setenv("CVRANKER_ADDR", ":8080")
			_ = os.Setenv("CVRANKER_WORKER_COUNT", "2")
			defer func() {
				_ = os.Unsetenv("CVRANKER_ADDR")
				_ = os.Unsetenv("CVRANKER_WORKER_COUNT")
			}()

			convey.Convey("Then all components should work together", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)

				_ = logger.Init()
				store := repository.NewMemStore()
				svc := app.New(
					app.WithStore(store),
					app.WithWorkerCount(cfg.WorkerCount),
					app.WithClaimTTL(time.Duration(cfg.ClaimTTLSeconds)*time.Second),
				)
				convey.So(svc, convey.ShouldNotBeNil)
				convey.So(svc.Start(ctx), convey.ShouldBeNil)

				mux := http.NewServeMux()
				api.NewServer(svc, analytics.New(store), svc).Register(ctx, mux)

				svc.Stop()
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("CVRANKER_AI_PROVIDER", "oracle")
			defer func() { _ = os.Unsetenv("CVRANKER_AI_PROVIDER") }()

			convey.Convey("Then configuration loading should fail", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When building a gemini provider without a key", func() {
			cfg := config.New()
			cfg.GeminiAPIKey = ""

			convey.Convey("Then the provider build should fail", func() {
				_, _, err := buildProvider(context.Background(), cfg)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
