package exporter

import (
	"context"
	"fmt"

	"github.com/rjeczalik/notify"
)

// Watch calls reload every time the file at path is written to until ctx is
// done. Reload errors are logged and the previous configuration is kept.
func Watch(ctx context.Context, path string, reload func() error) error {
	// A buffered channel guarantees that we don't loose events even
	// if writes take place at the exact same time
	c := make(chan notify.EventInfo, 5)

	if err := notify.Watch(path, c, notify.Write|notify.Remove); err != nil {
		return fmt.Errorf("error watching %q: %w", path, err)
	}
	defer notify.Stop(c)

	logger.Debug("watching the configuration", "path", path)

	for {
		select {
		case e := <-c:
			switch e.Event() {
			case notify.Write:
				logger.Debug("configuration changed, reloading", "path", e.Path())
				if err := reload(); err != nil {
					logger.Error("error reloading the configuration", "err", err)
				}
			case notify.Remove:
				logger.Warn("the configuration was removed, not watching it anymore", "path", e.Path())
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}
