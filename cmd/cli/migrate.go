package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/config"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/services"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/logger"
)

// linkStore is the subset of the repository the migration commands use.
type linkStore interface {
	Create(ctx context.Context, spec *domain.DeepLinkSpec) error
	GetByID(ctx context.Context, id string) (*domain.DeepLinkSpec, error)
	Dump(ctx context.Context) ([]domain.DeepLinkSpec, error)
}

var importFile string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every link record to stdout as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, _, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()
		return exportLinks(cmd.Context(), repo, cmd.OutOrStdout())
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load link records from a JSON export, skipping ids that already exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(importFile)
		if err != nil {
			return errors.Wrap(err, "open import file")
		}
		defer file.Close()

		repo, log, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()

		count, err := importLinks(cmd.Context(), repo, file, log)
		if err != nil {
			return err
		}
		log.Info("Import finished", zap.Int("imported", count))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "JSON file to import")
	_ = importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(exportCmd, importCmd)
}

func openStore() (*sqlite.SQLiteRepository, *zap.Logger, error) {
	cfg := config.Load()
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		return nil, nil, errors.Wrap(err, "init logger")
	}

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect to database")
	}
	return repo, log, nil
}

func exportLinks(ctx context.Context, store linkStore, w io.Writer) error {
	links, err := store.Dump(ctx)
	if err != nil {
		return errors.Wrap(err, "export")
	}
	if links == nil {
		links = []domain.DeepLinkSpec{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(links), "encode")
}

// importLinks keeps the exported ids so existing QR codes keep resolving.
// Records whose id is already present are skipped, not overwritten. Records
// that would not pass creation-time validation are skipped and logged.
func importLinks(ctx context.Context, store linkStore, r io.Reader, log *zap.Logger) (int, error) {
	var links []domain.DeepLinkSpec
	if err := json.NewDecoder(r).Decode(&links); err != nil {
		return 0, errors.Wrap(err, "decode")
	}

	count := 0
	for i := range links {
		l := &links[i]
		if l.ID == "" {
			log.Warn("Skipping record without id", zap.Int("index", i))
			continue
		}

		if err := services.ValidateSpec(l); err != nil {
			log.Warn("Skipping invalid record", zap.String("id", l.ID), zap.Error(err))
			continue
		}
		if l.DeepLink == "" {
			l.DeepLink = services.DeepLinkFor(l)
		}

		existing, err := store.GetByID(ctx, l.ID)
		if err != nil {
			return count, errors.Wrapf(err, "lookup %s", l.ID)
		}
		if existing != nil {
			log.Info("Skipping existing id", zap.String("id", l.ID))
			continue
		}

		if err := store.Create(ctx, l); err != nil {
			log.Warn("Failed to import", zap.String("id", l.ID), zap.Error(err))
			continue
		}
		count++
	}
	return count, nil
}
