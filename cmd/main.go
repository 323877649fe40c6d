package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aukilabs/dagaz/featureflag"
	dagazhttp "github.com/aukilabs/dagaz/http"
	"github.com/aukilabs/dagaz/list"
	"github.com/aukilabs/dagaz/models"
	"github.com/aukilabs/dagaz/pool"
	"github.com/aukilabs/dagaz/smoketest"
	dwebsocket "github.com/aukilabs/dagaz/websocket"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The Dagaz version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "dagaz_info",
		Help:        "Dagaz information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"DAGAZ_ADDR"                 help:"Listening address for client connections."`
	AdminAddr          string        `cli:""        env:"DAGAZ_ADMIN_ADDR"           help:"Admin listening address."`
	PublicEndpoint     string        `cli:""        env:"DAGAZ_PUBLIC_ENDPOINT"      help:"The public endpoint where this Dagaz server is reachable."`
	ServerID           string        `cli:""        env:"DAGAZ_SERVER_ID"            help:"The id prefixing the global session ids of this server."`
	LogLevel           string        `cli:""        env:"DAGAZ_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"DAGAZ_LOG_INDENT"           help:"Indent logs."`
	ClientIdleTimeout  time.Duration `cli:",hidden" env:"DAGAZ_CLIENT_IDLE_TIMEOUT"  help:"Time until an idle client will be disconnected"`
	LogSummaryInterval time.Duration `cli:",hidden" env:"DAGAZ_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary by connection."`
	Grid               gridConfig    `cli:",hidden" env:"-"                          help:"Session spatial grid configuration."`
	Pools              poolsConfig   `cli:",hidden" env:"-"                          help:"Object pool configuration."`
	Events             eventsConfig  `cli:",hidden" env:"-"                          help:"Event pusher configuration."`
	FeatureFlags       []string      `cli:",hidden" env:"DAGAZ_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                          help:"Show version."`
	Help               bool          `cli:""        env:"-"                          help:"Show help."`
}

type gridConfig struct {
	Width      int     `cli:",hidden" env:"DAGAZ_GRID_WIDTH"       help:"The number of cells along the x axis."`
	Height     int     `cli:",hidden" env:"DAGAZ_GRID_HEIGHT"      help:"The number of cells along the y axis."`
	Depth      int     `cli:",hidden" env:"DAGAZ_GRID_DEPTH"       help:"The number of cells along the z axis."`
	CellWidth  float64 `cli:",hidden" env:"DAGAZ_GRID_CELL_WIDTH"  help:"The size of a cell along the x axis, in world units."`
	CellHeight float64 `cli:",hidden" env:"DAGAZ_GRID_CELL_HEIGHT" help:"The size of a cell along the y axis, in world units."`
	CellDepth  float64 `cli:",hidden" env:"DAGAZ_GRID_CELL_DEPTH"  help:"The size of a cell along the z axis, in world units."`
}

type poolsConfig struct {
	PrewarmLists int `cli:",hidden" env:"DAGAZ_POOLS_PREWARM_LISTS" help:"The number of cell lists allocated at startup."`
	PrewarmNodes int `cli:",hidden" env:"DAGAZ_POOLS_PREWARM_NODES" help:"The number of list nodes allocated at startup."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"DAGAZ_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"DAGAZ_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"DAGAZ_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"DAGAZ_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func defaultConfig() config {
	return config{
		Addr:               ":4000",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:4000",
		ServerID:           "dagaz",
		LogLevel:           logs.InfoLevel.String(),
		ClientIdleTimeout:  time.Minute * 5,
		LogSummaryInterval: time.Minute,
		Grid: gridConfig{
			Width:      64,
			Height:     16,
			Depth:      64,
			CellWidth:  4,
			CellHeight: 4,
			CellDepth:  4,
		},
		Pools: poolsConfig{
			PrewarmLists: 1024,
			PrewarmNodes: 4096,
		},
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}
}

func main() {
	conf := defaultConfig()

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts Dagaz server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     metrics.HTTPTransport(http.DefaultTransport),
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "dagaz",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	list.Prewarm[uint32](conf.Pools.PrewarmLists, conf.Pools.PrewarmNodes)

	grid := models.GridConfig{
		Width:      conf.Grid.Width,
		Height:     conf.Grid.Height,
		Depth:      conf.Grid.Depth,
		CellWidth:  float32(conf.Grid.CellWidth),
		CellHeight: float32(conf.Grid.CellHeight),
		CellDepth:  float32(conf.Grid.CellDepth),
	}

	sessions := models.SessionStore{
		ServerID: conf.ServerID,
	}
	featureFlags := featureflag.New(conf.FeatureFlags)

	var ready atomic.Bool
	readinessCheck := ready.Load

	var service http.ServeMux
	service.Handle("/health", dagazhttp.HandleWithCORS(http.HandlerFunc(dagazhttp.HandleHealthCheck)))
	service.Handle("/version", dagazhttp.HandleWithCORS(http.HandlerFunc(dagazhttp.HandleVersion(version))))
	service.Handle("/ready", dagazhttp.HandleWithCORS(http.HandlerFunc(dagazhttp.HandleReadyCheck(readinessCheck))))
	service.Handle("GET "+dagazhttp.SessionDebugPath, dagazhttp.HandleWithCORS(dagazhttp.HandleSessionDebug(&sessions)))

	service.Handle("/", dagazhttp.HandleWithCORS(websocket.Server{
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			var h dwebsocket.Handler = &dwebsocket.RealtimeHandler{
				ClientIdleTimeout: conf.ClientIdleTimeout,
				Sessions:          &sessions,
				Grid:              grid,
				FeatureFlags:      featureFlags,
			}
			h = dwebsocket.HandlerWithLogs(h, conf.LogSummaryInterval)
			h = dwebsocket.HandlerWithMetrics(h, conf.PublicEndpoint)
			defer h.Close()

			dwebsocket.Handle(ctx, conn, h)
		},
	}))

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", dagazhttp.HandleHealthCheck)
	admin.HandleFunc("/ready", dagazhttp.HandleReadyCheck(readinessCheck))
	admin.HandleFunc("/debug/pools", dagazhttp.HandlePoolStats(func() []pool.Stats {
		return []pool.Stats{
			list.Pool[uint32]().Stats(),
			list.NodePool[uint32]().Stats(),
		}
	}))
	admin.HandleFunc("POST /smoke-test", smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Endpoint:  conf.PublicEndpoint,
		UserAgent: fmt.Sprintf("Dagaz %s", version),
		SendResult: func(ctx context.Context, res smoketest.Results) error {
			logs.WithTag("smoke_test", res).Info("smoke test completed")
			return nil
		},
	}))
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("server_id", conf.ServerID).
		WithTag("grid", grid).
		WithTag("feature_flags", conf.FeatureFlags).
		Info("starting dagaz server")

	ready.Store(true)
	dagazhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			dagazhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if conf.ServerID == "" {
		return errors.New("server id is empty")
	}

	for name, v := range map[string]int{
		"width":  conf.Grid.Width,
		"height": conf.Grid.Height,
		"depth":  conf.Grid.Depth,
	} {
		if v <= 0 {
			return errors.New("grid settings must be positive").
				WithTag("setting", name).
				WithTag("value", v)
		}
	}

	for name, v := range map[string]float64{
		"cell_width":  conf.Grid.CellWidth,
		"cell_height": conf.Grid.CellHeight,
		"cell_depth":  conf.Grid.CellDepth,
	} {
		if !(v > 0) || math.IsInf(v, 0) || v > math.MaxFloat32 {
			return errors.New("grid cell sizes must be positive finite numbers").
				WithTag("setting", name).
				WithTag("value", v)
		}
	}

	if conf.Pools.PrewarmLists < 0 || conf.Pools.PrewarmNodes < 0 {
		return errors.New("pool prewarm counts must not be negative")
	}

	return nil
}
