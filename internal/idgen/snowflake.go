package idgen

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
	err  error
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New returns a time-ordered unique id. Init must have been called;
// when it was not, node 1 is used.
func New() string {
	_ = Init(1)
	return strconv.FormatInt(node.Generate().Int64(), 10)
}
