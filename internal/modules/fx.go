package modules

import (
	"context"

	"github.com/koverhq/kover/internal/modules/installer"
	"github.com/koverhq/kover/internal/modules/queue"
	"go.uber.org/fx"
)

var Module = fx.Module("modules",
	fx.Provide(queue.New),
	fx.Provide(installer.DefaultConfig),
	fx.Provide(installer.NewWorker),
	fx.Invoke(runInstaller),
)

func runInstaller(lc fx.Lifecycle, worker *installer.Worker) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go worker.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
