package cmd

import "go.uber.org/fx"

var Module = fx.Module("cli",
	fx.Provide(
		fx.Annotate(run, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(script, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(toolsCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(historyCmd, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
