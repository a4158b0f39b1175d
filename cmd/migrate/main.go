// Command migrate provisions the billing schema and exits.
package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/stackfreight/billing/internal/config"
	"github.com/stackfreight/billing/internal/migration"
	"github.com/stackfreight/billing/pkg/db"
	"github.com/stackfreight/billing/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		fx.Invoke(func(sd fx.Shutdowner) error {
			return sd.Shutdown()
		}),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
