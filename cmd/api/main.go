package main

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/elibbooks/elib/pkg/config"
	"github.com/elibbooks/elib/pkg/database"
	"github.com/elibbooks/elib/pkg/ingest"
	"github.com/elibbooks/elib/pkg/keywords"
	"github.com/elibbooks/elib/pkg/mediastore"
	"github.com/elibbooks/elib/pkg/migrations"
	"github.com/elibbooks/elib/pkg/pdf"
	"github.com/elibbooks/elib/pkg/server"
	"github.com/elibbooks/elib/pkg/version"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting elib", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	store, err := mediastore.New(cfg.MediaRoot)
	if err != nil {
		log.Err(err).Fatal("media root error")
	}
	log.Info("media root initialized", logger.Data{"path": store.Root()})

	pool, err := pdf.NewPool(cfg.PDFiumWorkers)
	if err != nil {
		log.Err(err).Fatal("pdfium init error")
	}

	stopWords, err := loadStopWords(cfg)
	if err != nil {
		log.Err(err).Fatal("stop words error")
	}

	scorer := keywords.NewScorer(stopWords, cfg.MaxVocabulary)
	pipeline := ingest.NewPipeline(ingest.Config{
		RenderDPI:    cfg.RenderDPI,
		KeywordCount: cfg.KeywordCount,
	}, store, pdf.NewProcessor(pool), scorer)

	srv, err := server.New(cfg, db, store, pipeline)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}

		actualPort := listener.Addr().(*net.TCPAddr).Port
		log.Info("server started", logger.Data{"port": actualPort})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	err = pool.Close()
	if err != nil {
		log.Err(err).Error("pdfium close error")
	}
	log.Info("pdfium closed")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}

func loadStopWords(cfg *config.Config) ([]string, error) {
	if cfg.StopWordsFile == "" {
		return keywords.DefaultStopWords(), nil
	}
	return keywords.LoadStopWords(cfg.StopWordsFile)
}
