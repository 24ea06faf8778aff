package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	qhttp "creditscore/http"
	"creditscore/logging"
	"creditscore/ml"
	"creditscore/scoring"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Http struct {
		Port int `yaml:"port"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
		Path  string `yaml:"path"`
	} `yaml:"log"`
	Model struct {
		Type string `yaml:"type"`
		Path string `yaml:"path"`
	} `yaml:"model"`
	Scoring struct {
		CacheSize int `yaml:"cache_size"`
	} `yaml:"scoring"`
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.Init(config.Log.Level, config.Log.Path)
	defer logging.Sync()

	// 2. Load the trained model; the service must not come up without it
	model, err := ml.LoadModel(config.Model.Type, config.Model.Path)
	if err != nil {
		log.Fatalf("Failed to load model from %s: %v", config.Model.Path, err)
	}
	logging.L().Infow("model loaded", "type", config.Model.Type, "path", config.Model.Path)

	handler := scoring.NewHandler(model, scoring.Config{CacheSize: config.Scoring.CacheSize})
	qhttp.SetScoreHandler(handler)

	// 3. Start HTTP server
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

	// 4. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	if err := server.Stop(); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Exiting")
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
