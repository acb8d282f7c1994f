package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Synthesis
	SemaInfo Code = 3000

	// Declaration merging (3200-3209)
	SemaDuplicatePositionalList Code = 3201 // more than one fragment declares a parameter list
	SemaFragmentFlagsMismatch   Code = 3202 // fragments disagree on immutable/representation

	// Positional components (3210-3229)
	SemaComponentOutParam      Code = 3211 // `out` component
	SemaComponentRefParam      Code = 3212 // `ref` component
	SemaComponentThisParam     Code = 3213 // `this` (implicit receiver) component
	SemaComponentPointerType   Code = 3214
	SemaComponentStackOnlyType Code = 3215
	SemaComponentStaticType    Code = 3216
	SemaComponentCyclicLayout  Code = 3217 // fatal for the declaration
	SemaComponentDuplicateName Code = 3218
	SemaUnreadComponent        Code = 3219 // advisory

	// Member conflicts (3230-3259)
	SemaMemberWrongReturnType   Code = 3230
	SemaMemberMustBePublic      Code = 3231
	SemaMemberMustNotBeStatic   Code = 3232
	SemaMemberAccessibility     Code = 3233 // formatter-contents must be private/protected
	SemaMemberDoesNotOverride   Code = 3234
	SemaMemberSealedInUnsealed  Code = 3235
	SemaDeconstructArity        Code = 3236
	SemaDeconstructParam        Code = 3237
	SemaMemberAlreadyExists     Code = 3238
	SemaReservedMemberName      Code = 3239
	SemaEqualityParamByRef      Code = 3240
	SemaOperatorNotPublicStatic Code = 3241
	SemaCtorMustChain           Code = 3242
	SemaCopyCtorInaccessible    Code = 3243
	SemaEqualsWithoutHash       Code = 3244 // advisory
	SemaAccessorTypeMismatch    Code = 3245

	// Non-destructive update (3260-3269)
	SemaWithDuplicateMember     Code = 3260 // MemberAlreadyInitialized
	SemaWithCannotClone         Code = 3261
	SemaWithUnknownMember       Code = 3262
	SemaWithMemberNotAssignable Code = 3263

	// Document loading
	IOLoadFileError Code = 4001
	IODecodeError   Code = 4002
	IOUnknownType   Code = 4003

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown error",
		SemaInfo:                    "Semantic information",
		SemaDuplicatePositionalList: "only a single partial declaration may have a parameter list",
		SemaFragmentFlagsMismatch:   "partial declarations disagree on declaration flags",
		SemaComponentOutParam:       "positional component cannot be an out parameter",
		SemaComponentRefParam:       "positional component cannot be a ref parameter",
		SemaComponentThisParam:      "positional component cannot use the this modifier",
		SemaComponentPointerType:    "positional component cannot have a pointer type",
		SemaComponentStackOnlyType:  "positional component cannot have a stack-only type",
		SemaComponentStaticType:     "positional component cannot have a static type",
		SemaComponentCyclicLayout:   "value aggregate contains itself by value",
		SemaComponentDuplicateName:  "duplicate positional component name",
		SemaUnreadComponent:         "positional component is never read",
		SemaMemberWrongReturnType:   "member has the wrong return type",
		SemaMemberMustBePublic:      "member must be public",
		SemaMemberMustNotBeStatic:   "member must not be static",
		SemaMemberAccessibility:     "member has the wrong accessibility",
		SemaMemberDoesNotOverride:   "member must override the inherited member",
		SemaMemberSealedInUnsealed:  "member cannot be sealed in an unsealed declaration",
		SemaDeconstructArity:        "deconstruction does not match the positional components",
		SemaDeconstructParam:        "deconstruction parameter does not match its component",
		SemaMemberAlreadyExists:     "type already defines this member",
		SemaReservedMemberName:      "member name is reserved",
		SemaEqualityParamByRef:      "equality parameter must be passed by value",
		SemaOperatorNotPublicStatic: "operator must be public and static",
		SemaCtorMustChain:           "constructor must chain to the primary constructor",
		SemaCopyCtorInaccessible:    "copy constructor must be public or protected",
		SemaEqualsWithoutHash:       "equality defined without a matching hash",
		SemaAccessorTypeMismatch:    "accessor type does not match its positional component",
		SemaWithDuplicateMember:     "member is already initialized in this update expression",
		SemaWithCannotClone:         "type of the update source cannot be cloned",
		SemaWithUnknownMember:       "update names an unknown member",
		SemaWithMemberNotAssignable: "member cannot be assigned in an update expression",
		IOLoadFileError:             "I/O load file error",
		IODecodeError:               "declaration document cannot be decoded",
		IOUnknownType:               "unknown type or name",
		ObsInfo:                     "Observability information",
		ObsTimings:                  "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
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
