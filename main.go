package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v2"

	"restodash/analytics"
	"restodash/dataset"
	qhttp "restodash/http"
	"restodash/logging"
	"restodash/monitoring"
	"restodash/store"
)

type Config struct {
	Dataset struct {
		Path    string `yaml:"path"`
		Charset string `yaml:"charset"`
		Watch   bool   `yaml:"watch"`
	} `yaml:"dataset"`
	Database store.Config `yaml:"database"`
	Http     struct {
		Port      int `yaml:"port"`
		CacheSize int `yaml:"cache_size"`
	} `yaml:"http"`
	Log logging.Config `yaml:"log"`
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logging.Init(config.Log)
	defer logging.Sync()
	log := logging.S()

	// 2. Load and clean the dataset. Structural failures are fatal;
	// row-level parse warnings are kept as quality issues.
	cleaner := dataset.NewCleaner()
	holder := dataset.NewHolder(nil)

	ds, issues, err := dataset.Load(config.Dataset.Path, dataset.LoadOptions{
		Charset: config.Dataset.Charset,
		Cleaner: cleaner,
	})
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}
	holder.Swap(ds)
	log.Infof("Dataset loaded: %d rows, %d parse warnings", ds.Len(), len(issues))

	// 3. Initialize storage and persist the cleaned snapshot
	storage, err := store.Open(config.Database)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer storage.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := storage.ReplaceDataset(ctx, ds); err != nil {
		log.Warnf("Failed to persist dataset: %v", err)
	}
	if err := storage.ReplaceQualityIssues(ctx, issues); err != nil {
		log.Warnf("Failed to persist quality issues: %v", err)
	}
	cancel()
	log.Infof("Storage initialized at %s", config.Database.DBPath)

	// 4. WebSocket hub for live dashboard updates
	hub := monitoring.NewHub()
	go hub.Start()
	defer hub.Stop()

	// 5. Wire handlers
	qhttp.SetDatasetHolder(holder)
	qhttp.SetStorage(storage)
	qhttp.SetHub(hub)
	qhttp.SetCleaningStats(cleaner.GetStats)
	if err := qhttp.InitSnapshotCache(config.Http.CacheSize); err != nil {
		log.Fatalf("Failed to initialize snapshot cache: %v", err)
	}

	// 6. Watch the source file and reload on change
	var watcher *monitoring.Watcher
	if config.Dataset.Watch {
		watcher, err = monitoring.NewWatcher(config.Dataset.Path, func() {
			reloadDataset(config, cleaner, holder, storage, hub)
		})
		if err != nil {
			log.Warnf("Failed to start dataset watcher: %v", err)
		} else {
			go watcher.Start()
			defer watcher.Stop()
		}
	}

	// 7. Start HTTP server
	serverConfig := qhttp.DefaultServerConfig()
	if config.Http.Port > 0 {
		serverConfig.Port = config.Http.Port
	}
	server := qhttp.NewServer(serverConfig)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 8. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	if err := server.Stop(); err != nil {
		log.Warnf("Server forced to shutdown: %v", err)
	}

	log.Info("Exiting")
}

// reloadDataset 数据文件变化后的全量重载：换数据集、刷新存储、
// 清快照缓存、广播给仪表盘客户端。
func reloadDataset(config *Config, cleaner *dataset.Cleaner, holder *dataset.Holder,
	storage *store.Storage, hub *monitoring.Hub) {
	log := logging.S()

	ds, issues, err := dataset.Load(config.Dataset.Path, dataset.LoadOptions{
		Charset: config.Dataset.Charset,
		Cleaner: cleaner,
	})
	if err != nil {
		log.Errorf("Dataset reload failed, keeping previous dataset: %v", err)
		return
	}

	holder.Swap(ds)
	qhttp.ResetSnapshotCache()
	log.Infof("Dataset reloaded: %d rows, %d parse warnings", ds.Len(), len(issues))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := storage.ReplaceDataset(ctx, ds); err != nil {
		log.Warnf("Failed to persist reloaded dataset: %v", err)
	}
	if err := storage.ReplaceQualityIssues(ctx, issues); err != nil {
		log.Warnf("Failed to persist quality issues: %v", err)
	}

	hub.Broadcast(monitoring.DatasetReloaded, map[string]interface{}{
		"rows":           ds.Len(),
		"parse_warnings": len(issues),
		"summary":        analytics.Summarize(ds),
		"loaded_at":      ds.LoadedAt(),
	})
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
