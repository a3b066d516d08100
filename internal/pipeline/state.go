package pipeline

import (
	"github.com/askpatrick/patrick/internal/index"
	"github.com/askpatrick/patrick/session"
	"github.com/askpatrick/patrick/tools/web_search/models"
)

// Node identifies a pipeline stage.
type Node string

const (
	NodeRetrieve  Node = "retrieve"
	NodeGrade     Node = "grade"
	NodeRewrite   Node = "rewrite"
	NodeWebSearch Node = "web_search"
	NodeGenerate  Node = "generate"
	NodeEnd       Node = "end"
)

// State is the per-query record threaded through the pipeline. It is created
// fresh for every query and never shared across concurrent runs.
type State struct {
	Query              string
	History            []session.Exchange
	RewrittenQuery     string
	Documents          []index.Chunk
	Graded             []index.Chunk
	AugmentationNeeded bool
	WebResults         []models.Result
	Answer             string
}
