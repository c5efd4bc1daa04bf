package node

// Category is the structural category of a node as seen by the metrics engine.
type Category uint8

// Node categories.
const (
	// CategoryOther covers expressions, statements and everything else.
	CategoryOther Category = iota
	// CategoryPackage covers files, modules and namespaces.
	CategoryPackage
	// CategoryType covers class-like declarations.
	CategoryType
	// CategoryOperation covers methods, constructors and functions.
	CategoryOperation
)

var categoryNames = [...]string{
	CategoryOther:     "other",
	CategoryPackage:   "package",
	CategoryType:      "type",
	CategoryOperation: "operation",
}

// String returns the lower-case category name.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}

	return "unknown"
}

// CategoryOf maps a UAST type to its category.
func CategoryOf(nodeType Type) Category {
	switch nodeType {
	case UASTFile, UASTPackage, UASTModule, UASTNamespace:
		return CategoryPackage
	case UASTClass, UASTInterface, UASTStruct, UASTEnum:
		return CategoryType
	case UASTMethod, UASTFunction:
		return CategoryOperation
	default:
		return CategoryOther
	}
}

// Category returns the node's structural category.
func (targetNode *Node) Category() Category {
	if targetNode == nil {
		return CategoryOther
	}

	return CategoryOf(targetNode.Type)
}

// Name returns the declared name of the node: the "name" prop if set, else the
// token of the first child carrying [RoleName].
func (targetNode *Node) Name() string {
	if targetNode == nil {
		return ""
	}

	if name := targetNode.Prop(PropName); name != "" {
		return name
	}

	for _, child := range targetNode.Children {
		if child != nil && child.HasAnyRole(RoleName) && child.Token != "" {
			return child.Token
		}
	}

	return ""
}

// EnclosingType returns the nearest type declaration above n, or nil.
func (targetNode *Node) EnclosingType() *Node {
	return targetNode.nearest(CategoryType)
}

// EnclosingPackage returns the nearest package-like node above n, or nil.
func (targetNode *Node) EnclosingPackage() *Node {
	return targetNode.nearest(CategoryPackage)
}

func (targetNode *Node) nearest(category Category) *Node {
	if targetNode == nil {
		return nil
	}

	for curr := targetNode.parent; curr != nil; curr = curr.parent {
		if curr.Category() == category {
			return curr
		}
	}

	return nil
}

// PackageName returns the qualified package name that n belongs to. A
// package-like node reports its own name. Unnamed packages yield "".
func (targetNode *Node) PackageName() string {
	pkg := targetNode
	if targetNode.Category() != CategoryPackage {
		pkg = targetNode.EnclosingPackage()
	}

	return pkg.Prop(PropPackage)
}

// Operations returns the operations declared directly by a type, in
// declaration order. Operations of nested or local types are excluded.
func (targetNode *Node) Operations() []*Node {
	return targetNode.members(CategoryOperation)
}

// Types returns the type declarations owned directly by n, in declaration order.
func (targetNode *Node) Types() []*Node {
	return targetNode.members(CategoryType)
}

func (targetNode *Node) members(category Category) []*Node {
	if targetNode == nil {
		return nil
	}

	var result []*Node

	for _, child := range targetNode.Children {
		child.Walk(func(curr *Node) bool {
			switch curr.Category() {
			case category:
				result = append(result, curr)

				return false
			case CategoryType, CategoryOperation:
				return false
			default:
				return true
			}
		})
	}

	return result
}

// Fields returns the field declarations owned directly by a type.
func (targetNode *Node) Fields() []*Node {
	if targetNode == nil {
		return nil
	}

	var result []*Node

	for _, child := range targetNode.Children {
		child.Walk(func(curr *Node) bool {
			if curr.Type == UASTField {
				result = append(result, curr)

				return false
			}

			return curr.Category() == CategoryOther
		})
	}

	return result
}

// Parameters returns the formal parameters of an operation.
func (targetNode *Node) Parameters() []*Node {
	if targetNode == nil {
		return nil
	}

	var result []*Node

	for _, child := range targetNode.Children {
		if child != nil && child.Type == UASTParameter {
			result = append(result, child)
		}
	}

	return result
}

// Body returns the child carrying [RoleBody], or nil for bodiless
// declarations such as abstract or interface methods.
func (targetNode *Node) Body() *Node {
	if targetNode == nil {
		return nil
	}

	for _, child := range targetNode.Children {
		if child != nil && child.HasAnyRole(RoleBody) {
			return child
		}
	}

	return nil
}
