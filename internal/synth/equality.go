package synth

import (
	"hash/fnv"

	"aggsynth/internal/decl"
)

// HashMultiplier is the fixed odd multiplier of the hash combination.
const HashMultiplier int32 = -1521134295

// HashSeed is the deterministic, non-zero start value of the hash of
// typeName. Instances of a declaration without contributing components all
// hash to it.
func HashSeed(typeName string) int32 {
	seed := StringHash(typeName)
	if seed == 0 {
		seed = 1
	}
	return seed
}

// StringHash is the deterministic FNV-1a hash of s, shared by string
// components and type seeds.
func StringHash(s string) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int32(h.Sum32()) //nolint:gosec // wraparound intended
}

// CombineHash folds one component hash into acc. Arithmetic wraps.
func CombineHash(acc, component int32) int32 {
	return acc*HashMultiplier + component
}

func (s *synthesizer) buildObjectEquals() *Descriptor {
	return &Descriptor{
		Op: OpObjectEquals,
		Sig: Signature{
			Name:   NameEquals,
			Params: []SigParam{{Name: "obj", Type: s.b.Object}},
			Result: s.b.Bool,
			Access: decl.AccessPublic,
			Mods:   decl.ModOverride,
		},
		ExactType: !s.inheritable(),
		TypeName:  s.ms.TypeName,
	}
}

func (s *synthesizer) buildTypedEquals() *Descriptor {
	var mods decl.Modifiers
	if s.inheritable() && !s.baseAggregate {
		mods = decl.ModVirtual
	}
	return &Descriptor{
		Op: OpTypedEquals,
		Sig: Signature{
			Name:   NameEquals,
			Params: []SigParam{s.selfParam("other")},
			Result: s.b.Bool,
			Access: decl.AccessPublic,
			Mods:   mods,
		},
		Steps:     s.equalitySteps(),
		CallsBase: s.baseAggregate,
		TypeName:  s.ms.TypeName,
	}
}

func (s *synthesizer) buildHash() *Descriptor {
	return &Descriptor{
		Op: OpHash,
		Sig: Signature{
			Name:   NameGetHashCode,
			Result: s.b.Int,
			Access: decl.AccessPublic,
			Mods:   decl.ModOverride,
		},
		Steps:      s.equalitySteps(),
		Seed:       HashSeed(s.ms.TypeName),
		Multiplier: HashMultiplier,
		CallsBase:  s.baseAggregate,
		TypeName:   s.ms.TypeName,
	}
}

// buildOperator describes `==` (calls typed equality, null-aware for
// reference aggregates) or `!=` (negates `==`).
func buildOperator(op Op, name string) func(*synthesizer) *Descriptor {
	return func(s *synthesizer) *Descriptor {
		return &Descriptor{
			Op: op,
			Sig: Signature{
				Name:   name,
				Params: []SigParam{s.selfParam("left"), s.selfParam("right")},
				Result: s.b.Bool,
				Access: decl.AccessPublic,
				Mods:   decl.ModStatic,
			},
			TypeName: s.ms.TypeName,
		}
	}
}
