// Package id provides the snowflake node used for run identifiers.
package id

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var Module = fx.Module("id",
	fx.Provide(NewNode),
)

// NewNode builds a snowflake node. The node number comes from
// SNOWFLAKE_NODE_ID so replicas in the same cluster stay distinct.
func NewNode() (*snowflake.Node, error) {
	nodeID := int64(1)
	if raw := os.Getenv("SNOWFLAKE_NODE_ID"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			nodeID = parsed
		}
	}
	return snowflake.NewNode(nodeID)
}
