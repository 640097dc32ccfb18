package config

func loadProductionConfig(cfg *Config) {
	cfg.DatabaseFilePath = "/data/data.sqlite"
	cfg.MediaRoot = "/data/media"
	cfg.ServerHost = "0.0.0.0"
}
