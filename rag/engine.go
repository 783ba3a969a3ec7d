package rag

import (
	"github.com/mudler/localnotes/rag/interfaces"
	"github.com/mudler/localnotes/rag/types"
)

// Engine is an alias for interfaces.Engine
type Engine = interfaces.Engine

// Result is an alias for types.Result
type Result = types.Result
