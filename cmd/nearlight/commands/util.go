package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dbm "github.com/tendermint/tm-db"

	"github.com/nearlight/nearlight/config"
	"github.com/nearlight/nearlight/libs/log"
	"github.com/nearlight/nearlight/light"
	"github.com/nearlight/nearlight/light/store"
	dbs "github.com/nearlight/nearlight/light/store/db"
)

const lightDBName = "light"

var (
	metricsMtx sync.Mutex
	// go-kit registers every metric with the default registry, so each
	// namespace can only be built once per process.
	metricsByNamespace = make(map[string]*light.Metrics)
)

// lightEnv holds what a command needs to talk to the trusted store.
type lightEnv struct {
	conf    *config.Config
	logger  log.Logger
	db      dbm.DB
	store   store.Store
	metrics *light.Metrics
}

func openLightEnv(conf *config.Config, logger log.Logger) (*lightEnv, error) {
	db, err := config.DefaultDBProvider(&config.DBContext{ID: lightDBName, Config: conf})
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", lightDBName, err)
	}

	env := &lightEnv{
		conf:    conf,
		logger:  logger.With("module", "light"),
		db:      db,
		store:   dbs.New(db),
		metrics: light.NopMetrics(),
	}
	if conf.Instrumentation.Prometheus {
		env.metrics = prometheusMetrics(conf.Instrumentation.Namespace, conf.Light.ChainID)
	}
	return env, nil
}

func prometheusMetrics(namespace, chainID string) *light.Metrics {
	metricsMtx.Lock()
	defer metricsMtx.Unlock()

	if m, ok := metricsByNamespace[namespace]; ok {
		return m
	}
	m := light.PrometheusMetrics(namespace, "chain_id", chainID)
	metricsByNamespace[namespace] = m
	return m
}

func (env *lightEnv) clientOptions() []light.Option {
	return []light.Option{
		light.Logger(env.logger),
		light.WithMetrics(env.metrics),
		light.PruningSize(env.conf.Light.PruningSize),
		light.MaxParallelProofs(env.conf.Light.MaxParallelProofs),
	}
}

// client restores the light client from the trusted store.
func (env *lightEnv) client() (*light.Client, error) {
	c, err := light.NewClientFromTrustedStore(env.store, env.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w (run init first)", err)
	}
	return c, nil
}

// Close flushes the metrics, if enabled, and closes the database.
func (env *lightEnv) Close() error {
	if env.conf.Instrumentation.Prometheus {
		path := env.conf.Instrumentation.PrometheusTextfilePath()
		if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
			env.logger.Error("Failed to write metrics", "path", path, "err", err)
		}
	}
	return env.db.Close()
}

// loadCheckpointFile reads a checkpoint written by export, or a bootstrap
// checkpoint that only has the header and producer sets.
func loadCheckpointFile(path string) (light.Checkpoint, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return light.Checkpoint{}, err
	}

	var cp light.Checkpoint
	if err := json.Unmarshal(bz, &cp); err != nil {
		return light.Checkpoint{}, fmt.Errorf("decode checkpoint %s: %w", path, err)
	}
	if cp.Accumulator.Size() == 0 {
		return light.NewCheckpoint(cp.Header, cp.CurrentBPs, cp.NextBPs)
	}
	if err := cp.ValidateBasic(); err != nil {
		return light.Checkpoint{}, fmt.Errorf("invalid checkpoint %s: %w", path, err)
	}
	return cp, nil
}

func marshalCheckpoint(cp light.Checkpoint) ([]byte, error) {
	return json.MarshalIndent(cp, "", "  ")
}
