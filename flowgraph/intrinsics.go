package flowgraph

// The fixed, documented set of runtime primitives referenced by name (spec
// §6 "Intrinsics"). These constants exist so callers spell intrinsic IDs
// consistently; Pool.Intrinsic accepts any string, since a host library
// could in principle extend the set, but the analyzer only ever passes one
// of these.
const (
	IntrinsicIsNotVoid       = "is_not_void"
	IntrinsicCatchException  = "catch_exception"
	IntrinsicThrowException  = "throw_exception"
	IntrinsicIsNotExceptional = "is_not_exceptional"
	IntrinsicParallelize     = "parallelize"
	IntrinsicMakeTuple       = "make_tuple"
	IntrinsicMapBlank        = "map_blank"
	IntrinsicList            = "list"
	IntrinsicListEmpty       = "list_empty"
	IntrinsicLoopSequencer   = "loop_sequencer"
	IntrinsicLoopTask        = "loop_task"
	IntrinsicCharFromInt     = "char_from_int"

	IntrinsicFFILoadExternal      = "FFI_Load_External"
	IntrinsicFFIDescribeFunction  = "FFI_Describe_Function"
	IntrinsicFFICall              = "FFI_Call"

	IntrinsicReadFile  = "Read_File"
	IntrinsicWriteFile = "Write_File"

	IntrinsicDebugTrace = "debug_trace"

	IntrinsicMathSin      = "math_sin"
	IntrinsicMathCos      = "math_cos"
	IntrinsicMathTan      = "math_tan"
	IntrinsicMathSqrt     = "math_sqrt"
	IntrinsicMathLog      = "math_log"
	IntrinsicMathExp      = "math_exp"
	IntrinsicToFloat      = "to_float"
	IntrinsicFloorFloat   = "floor_float"
	IntrinsicCeilingFloat = "ceiling_float"
	IntrinsicTruncateFloat = "truncate_float"

	// core.* library intrinsics the loop specializer and comprehension
	// lowering emit calls to (spec §4.5, §4.9).
	IntrinsicCoreMap    = "core.map"
	IntrinsicCoreFilter = "core.filter"

	// generator/async chain constructors (spec §4.4, §9 "Generators and
	// tasks"). Names and shapes are a runtime contract and must stay
	// stable.
	IntrinsicMakeIterator    = "make_iterator"
	IntrinsicMakeAction      = "make_action"
	IntrinsicMakeSubsequence = "make_subsequence"
	IntrinsicMakeSubtask     = "make_subtask"
	IntrinsicMakeTerminator  = "make_terminator"
)
