package main

import (
	"os"

	"wsbpanel/internal/bootstrap"
	"wsbpanel/internal/workers"
	"wsbpanel/pkg/errors"
)

func main() {
	c := bootstrap.NewContainer()
	c.MustInit()

	err := c.Run()
	c.Shutdown()

	// stage failures are reported and logged; only a refused run is fatal
	if errors.Is(err, workers.ErrRunLocked) {
		os.Exit(1)
	}
}
