// Command api-server runs the back-office REST API.
package main

import (
	"context"

	sdkapp "github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/webstore-backoffice/internal/app"
)

func run(ctx context.Context, lg *zap.Logger, m *sdkapp.Telemetry) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	return app.Run(ctx, lg, m, cfg)
}

func main() {
	sdkapp.Run(run)
}
