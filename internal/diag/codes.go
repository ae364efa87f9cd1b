package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// semantic analysis
	SemaInfo                    Code = 3000
	SemaError                   Code = 3001
	SemaFieldNotFound           Code = 3002
	SemaUnknownType             Code = 3003
	SemaUnknownSymbol           Code = 3004
	SemaTypeMismatch            Code = 3005
	SemaArgumentCount           Code = 3006
	SemaNotAStruct              Code = 3007
	SemaTupleIndexOutOfRange    Code = 3008
	SemaNotATuple               Code = 3009
	SemaTypeNotFinalized        Code = 3010
	SemaRecursiveCall           Code = 3011
	SemaDuplicateDeclaration    Code = 3012
	SemaTypeArgumentCount       Code = 3013
	SemaMissingStructField      Code = 3014
	SemaCannotInferGeneric      Code = 3015
	SemaUnknownMethod           Code = 3016
	SemaStoragePurity           Code = 3017
	SemaGenericEntry            Code = 3018
	SemaMissingMain             Code = 3050
	SemaUnexpectedMain          Code = 3051
	SemaPredicateMainNotBool    Code = 3052
	SemaStorageOutsideContract  Code = 3053
	SemaMultipleStorage         Code = 3054
	SemaDuplicateContractMethod Code = 3055
	SemaStorageInitNotConst     Code = 3056
	SemaConfigurableNotConst    Code = 3057
	SemaContractImplOutsideABI  Code = 3058

	// project / module graph
	ProjInfo             Code = 5000
	ProjDependencyCycle  Code = 5001
	ProjUnknownSubmodule Code = 5002
	ProjSelfDependency   Code = 5003
	ProjDuplicateModule  Code = 5004

	// storage layout
	StorageLayoutFailure Code = 6001

	// ABI synthesis. 9xxx is reserved for internal consistency failures.
	AbiUnsupportedParamType     Code = 7001
	AbiInternalSynthesisFailure Code = 9001
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	SemaInfo:                    "Semantic information",
	SemaError:                   "Semantic error",
	SemaFieldNotFound:           "Field not found",
	SemaUnknownType:             "Unknown type",
	SemaUnknownSymbol:           "Unknown symbol",
	SemaTypeMismatch:            "Type mismatch",
	SemaArgumentCount:           "Wrong number of arguments",
	SemaNotAStruct:              "Field access on a non-struct value",
	SemaTupleIndexOutOfRange:    "Tuple index out of range",
	SemaNotATuple:               "Tuple index on a non-tuple value",
	SemaTypeNotFinalized:        "Type could not be inferred",
	SemaRecursiveCall:           "Recursive function call",
	SemaDuplicateDeclaration:    "Duplicate declaration",
	SemaTypeArgumentCount:       "Wrong number of type arguments",
	SemaMissingStructField:      "Struct field is not initialized",
	SemaCannotInferGeneric:      "Cannot infer generic argument",
	SemaUnknownMethod:           "Unknown method",
	SemaStoragePurity:           "Storage access not declared",
	SemaGenericEntry:            "Entry function cannot be generic",
	SemaMissingMain:             "Script has no main function",
	SemaUnexpectedMain:          "Contract declares a main function",
	SemaPredicateMainNotBool:    "Predicate main must return bool",
	SemaStorageOutsideContract:  "Storage declared outside a contract",
	SemaMultipleStorage:         "Multiple storage declarations",
	SemaDuplicateContractMethod: "Duplicate contract method name",
	SemaStorageInitNotConst:     "Storage initializer is not a constant",
	SemaConfigurableNotConst:    "Configurable value is not a constant",
	SemaContractImplOutsideABI:  "Contract implementation outside a contract",
	ProjInfo:                    "Project information",
	ProjDependencyCycle:         "Submodule dependency cycle",
	ProjUnknownSubmodule:        "Unknown submodule",
	ProjSelfDependency:          "Submodule depends on itself",
	ProjDuplicateModule:         "Duplicate submodule",
	StorageLayoutFailure:        "Storage layout failure",
	AbiUnsupportedParamType:     "Unsupported ABI parameter type",
	AbiInternalSynthesisFailure: "Internal compiler error in entry synthesis",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("STO%04d", ic)
	case ic >= 7000 && ic < 9000:
		return fmt.Sprintf("ABI%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("ICE%04d", ic)
	}
	return "E0000"
}

// IsInternal reports whether the code marks a compiler bug rather than a
// problem in user code.
func (c Code) IsInternal() bool {
	return c >= 9000 && c < 10000
}

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
