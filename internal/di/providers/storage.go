package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/shelfwise/catalog-server/internal/config"
	"github.com/shelfwise/catalog-server/internal/logger"
	"github.com/shelfwise/catalog-server/internal/media/covers"
	"github.com/shelfwise/catalog-server/internal/media/images"
)

// ProvideCoverStorage provides the on-disk cover rendition storage.
func ProvideCoverStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := cfg.Data.CoversPath()
	s, err := images.NewStorage(path)
	if err != nil {
		return nil, fmt.Errorf("cover storage: %w", err)
	}

	log.Info("Cover storage initialized", "path", path)
	return s, nil
}

// ProvideImageProcessor provides the image processor for covers and logos.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	storage := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(storage, log.Component("images").Logger), nil
}

// ProvideCoverDownloader provides the remote logo downloader.
func ProvideCoverDownloader(i do.Injector) (*covers.Downloader, error) {
	processor := do.MustInvoke[*images.Processor](i)
	log := do.MustInvoke[*logger.Logger](i)

	return covers.NewDownloader(processor, log.Component("covers").Logger), nil
}
