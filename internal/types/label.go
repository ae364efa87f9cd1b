package types

import (
	"fmt"
	"strings"
)

// Label returns a user-friendly label for a TypeID.
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID || typesIn == nil {
		return "?"
	}
	if depth > 8 {
		return "..."
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindUnknown, KindPlaceholder:
		return "_"
	case KindNumeric:
		return "{numeric}"
	case KindErrorRecovery:
		return "{unknown}"
	case KindNever:
		return "!"
	case KindUnit:
		return "()"
	case KindBool:
		return "bool"
	case KindUint:
		return fmt.Sprintf("u%d", tt.Width)
	case KindB256:
		return "b256"
	case KindStringSlice:
		return "str"
	case KindStringArray:
		return fmt.Sprintf("str[%d]", tt.Count)
	case KindArray:
		return fmt.Sprintf("[%s; %d]", labelDepth(typesIn, tt.Elem, depth+1), tt.Count)
	case KindPtr:
		return "__ptr " + labelDepth(typesIn, tt.Elem, depth+1)
	case KindSlice:
		return "__slice " + labelDepth(typesIn, tt.Elem, depth+1)
	case KindRawPtr:
		return "raw_ptr"
	case KindRawSlice:
		return "raw_slice"
	case KindContract:
		return "contract"
	case KindTuple:
		elems, _ := typesIn.TupleElems(id)
		return "(" + joinLabels(typesIn, elems, depth) + ")"
	case KindStruct, KindEnum:
		info, ok := typesIn.NominalInfo(id)
		if !ok {
			return "?"
		}
		if len(info.Args) == 0 {
			return info.Name
		}
		return info.Name + "<" + joinLabels(typesIn, info.Args, depth) + ">"
	case KindAlias:
		info, ok := typesIn.AliasInfo(id)
		if !ok {
			return "?"
		}
		return info.Name
	case KindTypeParam:
		if info, ok := typesIn.TypeParamInfo(id); ok && info.Name != "" {
			return info.Name
		}
		return "T"
	}
	return "?"
}

func joinLabels(typesIn *Interner, ids []TypeID, depth int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = labelDepth(typesIn, id, depth+1)
	}
	return strings.Join(parts, ", ")
}
