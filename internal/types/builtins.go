package types

// XSDNamespace is the XML Schema namespace.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

const (
	TypeNameAnyType       = "anyType"
	TypeNameAnySimpleType = "anySimpleType"

	TypeNameString           = "string"
	TypeNameNormalizedString = "normalizedString"
	TypeNameToken            = "token"
	TypeNameLanguage         = "language"
	TypeNameName             = "Name"
	TypeNameNMTOKEN          = "NMTOKEN"
	TypeNameNCName           = "NCName"
	TypeNameID               = "ID"
	TypeNameIDREF            = "IDREF"
	TypeNameENTITY           = "ENTITY"
	TypeNameNMTOKENS         = "NMTOKENS"
	TypeNameIDREFS           = "IDREFS"
	TypeNameENTITIES         = "ENTITIES"
)

type builtinStep struct {
	name    string
	base    string
	variety Variety
}

// builtinChain is the bootstrap derivation order. Each step only depends on
// names registered before it.
var builtinChain = []builtinStep{
	{name: TypeNameString, base: TypeNameAnySimpleType, variety: VarietyAtomic},
	{name: TypeNameNormalizedString, base: TypeNameString, variety: VarietyAtomic},
	{name: TypeNameToken, base: TypeNameNormalizedString, variety: VarietyAtomic},
	{name: TypeNameLanguage, base: TypeNameToken, variety: VarietyAtomic},
	{name: TypeNameName, base: TypeNameToken, variety: VarietyAtomic},
	{name: TypeNameNMTOKEN, base: TypeNameToken, variety: VarietyAtomic},
	{name: TypeNameNCName, base: TypeNameName, variety: VarietyAtomic},
	{name: TypeNameID, base: TypeNameNCName, variety: VarietyAtomic},
	{name: TypeNameIDREF, base: TypeNameNCName, variety: VarietyAtomic},
	{name: TypeNameENTITY, base: TypeNameNCName, variety: VarietyAtomic},
	{name: TypeNameNMTOKENS, base: TypeNameNMTOKEN, variety: VarietyList},
	{name: TypeNameIDREFS, base: TypeNameIDREF, variety: VarietyList},
	{name: TypeNameENTITIES, base: TypeNameENTITY, variety: VarietyList},
}

var builtinListItemTypes = map[string]string{
	TypeNameNMTOKENS: TypeNameNMTOKEN,
	TypeNameIDREFS:   TypeNameIDREF,
	TypeNameENTITIES: TypeNameENTITY,
}

// BuiltinNames returns the built-in type names in bootstrap order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinChain)+2)
	names = append(names, TypeNameAnyType, TypeNameAnySimpleType)
	for _, step := range builtinChain {
		names = append(names, step.name)
	}
	return names
}

// IsBuiltin reports whether name is one of the bootstrap types.
func IsBuiltin(name string) bool {
	if name == TypeNameAnyType || name == TypeNameAnySimpleType {
		return true
	}
	for _, step := range builtinChain {
		if step.name == name {
			return true
		}
	}
	return false
}

// BuiltinListItemTypeName returns the item type of a built-in list type.
func BuiltinListItemTypeName(name string) (string, bool) {
	item, ok := builtinListItemTypes[name]
	return item, ok
}

// bootstrap seeds the built-in chain once. Re-entry is a no-op.
func (r *Registry) bootstrap() {
	if r.seeded {
		return
	}
	r.seeded = true
	if len(r.byName) > 0 {
		return
	}

	mustSeed(r.register(NewRootType(TypeNameAnyType, true, FinalNone)))
	mustSeed(r.register(NewRootType(TypeNameAnySimpleType, false, FinalNone)))
	for _, step := range builtinChain {
		base := r.byName[step.base]
		switch step.variety {
		case VarietyList:
			t, err := list(step.name, FinalNone, base)
			mustSeed(t, err)
			mustSeed(r.register(t))
		default:
			t, err := restrict(step.name, base, FinalNone, nil)
			mustSeed(t, err)
			mustSeed(r.register(t))
		}
	}
}

func mustSeed(_ Type, err error) {
	if err != nil {
		panic("types: built-in bootstrap failed: " + err.Error())
	}
}

// Builtins returns the seeded built-in types in bootstrap order.
func (r *Registry) Builtins() []Type {
	r.bootstrap()
	names := BuiltinNames()
	out := make([]Type, 0, len(names))
	for _, name := range names {
		if t, ok := r.byName[name]; ok {
			out = append(out, t)
		}
	}
	return out
}
