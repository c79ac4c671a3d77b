package diag

import "fmt"

// Code is a compact numeric diagnostic identifier. Ranges are reserved by
// pipeline stage so a raw integer decodes unambiguously.
type Code uint16

const (
	// UnknownCode is the zero value; no pass should emit it.
	UnknownCode Code = 0

	// Generic, stage-agnostic codes.
	Info  Code = 100
	Error Code = 101

	// Drop checker (ownership/borrow analysis), range 1000-1999.
	DropInfo               Code = 1000
	DropUseAfterMove       Code = 1001
	DropMovedWhileBorrowed Code = 1002
	DropCollision          Code = 1003
	DropAssignToMoved      Code = 1004
	DropImplicitCloneAdded Code = 1005

	// Recursive-data handler, range 2000-2999.
	RecInfo               Code = 2000
	RecRecursiveDataType  Code = 2001
	RecBoxInsertionFailed Code = 2002

	// Pattern-coverage placeholders for the adjacent match compiler; no
	// stage in this repository reports them. Range 3000-3999.
	PatInfo             Code = 3000
	PatMissingPattern   Code = 3001
	PatRedundantPattern Code = 3002

	// Trait/instance resolution failures surfaced while querying the
	// oracle. Range 4000-4999.
	InstInfo                    Code = 4000
	InstResolutionFailure       Code = 4001
	InstAmbiguousImplementation Code = 4002

	// Simplification passes, range 5000-5999 (info/diagnostic only; passes
	// are not expected to error under well-formed input).
	SimplifyInfo Code = 5000

	// Pipeline/driver/config level, range 6000-6999.
	PipelineInfo        Code = 6000
	PipelineConfigError Code = 6001
	PipelineCacheError  Code = 6002
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown diagnostic",
	Info:        "info",
	Error:       "error",

	DropInfo:               "drop checker info",
	DropUseAfterMove:       "use of a value after it was moved",
	DropMovedWhileBorrowed: "value moved while a borrow of it is still live",
	DropCollision:          "variable used along two incompatible paths without a reconciling clone",
	DropAssignToMoved:      "assignment overwrites a value that was not dropped on some path",
	DropImplicitCloneAdded: "implicit clone inserted to resolve a copy-on-use collision",

	RecInfo:               "recursive-data handler info",
	RecRecursiveDataType:  "recursive data type requires indirection",
	RecBoxInsertionFailed: "could not insert a box at a recursive occurrence",

	PatInfo:             "pattern coverage info",
	PatMissingPattern:   "pattern match does not cover every case",
	PatRedundantPattern: "pattern can never match",

	InstInfo:                    "instance resolution info",
	InstResolutionFailure:       "no implementation satisfies the required trait",
	InstAmbiguousImplementation: "more than one implementation satisfies the required trait",

	SimplifyInfo: "simplification pass info",

	PipelineInfo:        "pipeline info",
	PipelineConfigError: "invalid pipeline configuration",
	PipelineCacheError:  "artifact cache error",
}

// ID renders a stable, stage-prefixed string form, e.g. "DRP1001".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 100 && ic < 200:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("DRP%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("REC%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("PAT%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("INS%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("SIM%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("PIP%04d", ic)
	}
	return "E0000"
}

// Title returns the human-readable description registered for c.
func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
