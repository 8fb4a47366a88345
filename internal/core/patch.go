package core

type PatchOp int

const (
	OpSet PatchOp = iota
	OpArrayUnion
	OpArrayRemove
	OpArrayAppend
	OpServerTimestamp
)

func (o PatchOp) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpArrayUnion:
		return "array_union"
	case OpArrayRemove:
		return "array_remove"
	case OpArrayAppend:
		return "array_append"
	case OpServerTimestamp:
		return "server_timestamp"
	default:
		return "unknown"
	}
}

// FieldPatch is a partial update of a single top level field.
type FieldPatch struct {
	Field string
	Op    PatchOp
	Value any
}

func Set(field string, value any) FieldPatch {
	return FieldPatch{Field: field, Op: OpSet, Value: value}
}

// ArrayUnion adds value to the array field unless an equal element is already present.
func ArrayUnion(field string, value any) FieldPatch {
	return FieldPatch{Field: field, Op: OpArrayUnion, Value: value}
}

// ArrayRemove removes every element equal to value from the array field.
func ArrayRemove(field string, value any) FieldPatch {
	return FieldPatch{Field: field, Op: OpArrayRemove, Value: value}
}

// ArrayAppend appends value to the array field, duplicates included.
func ArrayAppend(field string, value any) FieldPatch {
	return FieldPatch{Field: field, Op: OpArrayAppend, Value: value}
}

// ServerTimestamp sets the field to the store clock at commit time.
func ServerTimestamp(field string) FieldPatch {
	return FieldPatch{Field: field, Op: OpServerTimestamp}
}

type serverTime struct{}

// ServerTime is a field value resolved to the store clock at commit, for CreateDocument and Set.
var ServerTime any = serverTime{}
