package ids

import (
	"log"

	"github.com/bwmarrin/snowflake"
)

var node *snowflake.Node

// Init creates the process-wide snowflake node. Must run before any
// repository writes.
func Init(nodeID int64) {
	var err error
	node, err = snowflake.NewNode(nodeID)
	if err != nil {
		log.Fatal("failed to init snowflake node:", err)
	}
}

// Next returns a new time-ordered unique ID.
func Next() int64 {
	return node.Generate().Int64()
}
