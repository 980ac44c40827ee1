package common

import (
	"strings"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a new snowflake id.
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// UUID returns a new snowflake id in base58 string form.
func UUID() string {
	return snowflakeNode.Generate().Base58()
}

// IfEmptyStr returns defval when src is empty.
func IfEmptyStr(src, defval string) string {
	if strings.TrimSpace(src) == "" {
		return defval
	}
	return src
}
