package config

func loadDevelopmentConfig(cfg *Config) {
	cfg.DatabaseDebug = true
	cfg.DatabaseFilePath = "./tmp/data.sqlite"
	cfg.JWTSecret = "development-secret-do-not-use"
	cfg.MediaRoot = "./tmp/media"
	cfg.ServerHost = "127.0.0.1"
}
