package board

import (
	"fmt"

	"go.bug.st/serial"

	"github.com/sweeney/brewer/internal/config"
	"github.com/sweeney/brewer/internal/logging"
)

// Open opens the serial port in cfg and returns a Board writing to it. The
// caller runs b.Run(ctx, port) and closes the port on shutdown, which also
// ends Run.
func Open(cfg config.BoardConfig, keys KeySink, log *logging.Logger) (*Board, serial.Port, error) {
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, nil, fmt.Errorf("board: open %s: %w", cfg.Port, err)
	}
	log.Info("board connected", "port", cfg.Port, "baud", cfg.BaudRate)
	return New(port, keys, cfg.AmbientTTL, log), port, nil
}
