// Package node provides the canonical UAST node structure and operations for
// tree traversal and structural lookups used by metric algorithms.
package node

import (
	"slices"
	"strconv"
	"strings"
)

// UAST node type constants.
const (
	UASTFile       = "File"
	UASTFunction   = "Function"
	UASTMethod     = "Method"
	UASTClass      = "Class"
	UASTInterface  = "Interface"
	UASTStruct     = "Struct"
	UASTEnum       = "Enum"
	UASTVariable   = "Variable"
	UASTParameter  = "Parameter"
	UASTBlock      = "Block"
	UASTIf         = "If"
	UASTLoop       = "Loop"
	UASTSwitch     = "Switch"
	UASTCase       = "Case"
	UASTReturn     = "Return"
	UASTBreak      = "Break"
	UASTContinue   = "Continue"
	UASTAssignment = "Assignment"
	UASTCall       = "Call"
	UASTIdentifier = "Identifier"
	UASTLiteral    = "Literal"
	UASTBinaryOp   = "BinaryOp"
	UASTImport     = "Import"
	UASTPackage    = "Package"
	UASTField      = "Field"
	UASTLambda     = "Lambda"
	UASTTry        = "Try"
	UASTCatch      = "Catch"
	UASTFinally    = "Finally"
	UASTThrow      = "Throw"
	UASTModule     = "Module"
	UASTNamespace  = "Namespace"
	UASTMatch      = "Match"
	UASTSynthetic  = "Synthetic"
)

// Role constants for syntactic and semantic labeling.
const (
	RoleFunction    = "Function"
	RoleDeclaration = "Declaration"
	RoleName        = "Name"
	RoleReference   = "Reference"
	RoleAssignment  = "Assignment"
	RoleCall        = "Call"
	RoleParameter   = "Parameter"
	RoleCondition   = "Condition"
	RoleBody        = "Body"
	RoleBranch      = "Branch"
	RoleExported    = "Exported"
	RolePublic      = "Public"
	RolePrivate     = "Private"
	RoleStatic      = "Static"
	RoleConstant    = "Constant"
	RoleAbstract    = "Abstract"
	RoleStatement   = "Statement"
	RoleConstructor = "Constructor"
	RoleInterface   = "Interface"
	RoleClass       = "Class"
	RoleStruct      = "Struct"
	RoleEnum        = "Enum"
	RoleMember      = "Member"
	RoleModule      = "Module"
	RoleLambda      = "Lambda"
	RoleReturn      = "Return"
)

// Property keys set by frontends.
const (
	PropName     = "name"
	PropPackage  = "package"
	PropLanguage = "language"
	PropOperator = "operator"
	PropKind     = "kind"
	PropReceiver = "receiver"
)

// Role represents a syntactic/semantic label for a node.
type Role string

// Type represents a type label for a node.
type Type string

// Positions represents the byte and line/col offsets for a node.
// All fields are 1-based except StartOffset/EndOffset, which are byte offsets.
type Positions struct {
	StartLine   uint `json:"start_line,omitempty"`
	StartCol    uint `json:"start_col,omitempty"`
	StartOffset uint `json:"start_offset,omitempty"`
	EndLine     uint `json:"end_line,omitempty"`
	EndCol      uint `json:"end_col,omitempty"`
	EndOffset   uint `json:"end_offset,omitempty"`
}

// NewPositions builds a Positions value.
func NewPositions(startLine, startCol, startOffset, endLine, endCol, endOffset uint) *Positions {
	return &Positions{
		StartLine:   startLine,
		StartCol:    startCol,
		StartOffset: startOffset,
		EndLine:     endLine,
		EndCol:      endCol,
		EndOffset:   endOffset,
	}
}

// Lines returns the number of physical lines spanned, or 0 when unknown.
func (pos *Positions) Lines() uint {
	if pos == nil || pos.EndLine < pos.StartLine || pos.StartLine == 0 {
		return 0
	}

	return pos.EndLine - pos.StartLine + 1
}

// Node is the canonical UAST node structure.
//
// Fields:
//
//	ID: unique node identifier (optional).
//	Type: node type (e.g., "Method", "Identifier").
//	Token: string value or token for leaf nodes.
//	Roles: semantic/syntactic roles (see Role).
//	Pos: source code position info (optional).
//	Props: additional properties (language-specific).
//	Children: child nodes (ordered).
//
// Two nodes are the same program element only if they are the same pointer.
type Node struct {
	ID       string            `json:"id,omitempty"`
	Token    string            `json:"token,omitempty"`
	Type     Type              `json:"type,omitempty"`
	Roles    []Role            `json:"roles,omitempty"`
	Pos      *Positions        `json:"pos,omitempty"`
	Props    map[string]string `json:"props,omitempty"`
	Children []*Node           `json:"children,omitempty"`

	parent *Node
}

// NodeBuilder provides a fluent interface for building Node instances.
type NodeBuilder struct {
	node *Node
}

// Allocation constants.
const (
	initialChildCap = 4
	defaultStackCap = 64
)

// NewBuilder creates a new NodeBuilder.
func NewBuilder() *NodeBuilder {
	return &NodeBuilder{node: &Node{}}
}

// WithID sets the node ID.
func (builder *NodeBuilder) WithID(nodeID string) *NodeBuilder {
	builder.node.ID = nodeID

	return builder
}

// WithType sets the node type.
func (builder *NodeBuilder) WithType(nodeType Type) *NodeBuilder {
	builder.node.Type = nodeType

	return builder
}

// WithToken sets the node token.
func (builder *NodeBuilder) WithToken(token string) *NodeBuilder {
	builder.node.Token = token

	return builder
}

// WithRoles sets the node roles.
func (builder *NodeBuilder) WithRoles(roles ...Role) *NodeBuilder {
	builder.node.Roles = roles

	return builder
}

// WithPosition sets the node position.
func (builder *NodeBuilder) WithPosition(pos *Positions) *NodeBuilder {
	builder.node.Pos = pos

	return builder
}

// WithProp sets a single property.
func (builder *NodeBuilder) WithProp(key, value string) *NodeBuilder {
	if builder.node.Props == nil {
		builder.node.Props = make(map[string]string, 1)
	}

	builder.node.Props[key] = value

	return builder
}

// WithChildren appends children and links them to the node under construction.
func (builder *NodeBuilder) WithChildren(children ...*Node) *NodeBuilder {
	for _, child := range children {
		builder.node.AddChild(child)
	}

	return builder
}

// Build returns the final Node.
func (builder *NodeBuilder) Build() *Node {
	if builder.node.Children == nil {
		builder.node.Children = make([]*Node, 0, initialChildCap)
	}

	return builder.node
}

// New creates a new Node initialized with the given values.
func New(nodeType Type, token string, roles ...Role) *Node {
	return &Node{Type: nodeType, Token: token, Roles: roles}
}

// NewNodeWithToken creates a new Node with type and token.
func NewNodeWithToken(nodeType Type, token string) *Node {
	return &Node{Type: nodeType, Token: token}
}

// Parent returns the node this node was attached to, or nil for a root.
func (targetNode *Node) Parent() *Node {
	if targetNode == nil {
		return nil
	}

	return targetNode.parent
}

// AddChild appends a child node and records n as its parent.
func (targetNode *Node) AddChild(child *Node) {
	if child == nil {
		return
	}

	child.parent = targetNode
	targetNode.Children = append(targetNode.Children, child)
}

// RemoveChild removes the first occurrence of the given child node.
// Returns true if the child was found and removed.
func (targetNode *Node) RemoveChild(child *Node) bool {
	for idx, candidate := range targetNode.Children {
		if candidate == child {
			targetNode.Children = slices.Delete(targetNode.Children, idx, idx+1)
			child.parent = nil

			return true
		}
	}

	return false
}

// Link sets the parent pointer of every node in the subtree rooted at n.
// Trees built with struct literals or decoded from JSON must be linked before
// structural lookups such as [Node.EnclosingType] are used.
func (targetNode *Node) Link() {
	if targetNode == nil {
		return
	}

	stack := make([]*Node, 0, defaultStackCap)
	stack = append(stack, targetNode)

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, child := range curr.Children {
			if child == nil {
				continue
			}

			child.parent = curr
			stack = append(stack, child)
		}
	}
}

// Find returns all nodes in the tree (including root) for which predicate(node) is true.
// Traversal is pre-order. Returns nil if n is nil.
func (targetNode *Node) Find(predicate func(*Node) bool) []*Node {
	if targetNode == nil {
		return nil
	}

	var result []*Node

	targetNode.VisitPreOrder(func(curr *Node) {
		if predicate(curr) {
			result = append(result, curr)
		}
	})

	return result
}

// VisitPreOrder visits all nodes in pre-order (root, then children left-to-right).
func (targetNode *Node) VisitPreOrder(fn func(*Node)) {
	targetNode.Walk(func(curr *Node) bool {
		fn(curr)

		return true
	})
}

// Walk visits nodes in pre-order. Returning false from fn skips the subtree
// below the current node.
func (targetNode *Node) Walk(fn func(*Node) bool) {
	if targetNode == nil {
		return
	}

	stack := make([]*Node, 0, defaultStackCap)
	stack = append(stack, targetNode)

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if curr == nil || !fn(curr) {
			continue
		}

		for idx := len(curr.Children) - 1; idx >= 0; idx-- {
			stack = append(stack, curr.Children[idx])
		}
	}
}

// VisitPostOrder visits all nodes in post-order (children left-to-right, then root).
func (targetNode *Node) VisitPostOrder(fn func(*Node)) {
	if targetNode == nil {
		return
	}

	for _, child := range targetNode.Children {
		child.VisitPostOrder(fn)
	}

	fn(targetNode)
}

// Ancestors returns the chain of parents from the root down to the direct
// parent of n. Returns nil for a root or an unlinked node.
func (targetNode *Node) Ancestors() []*Node {
	if targetNode == nil {
		return nil
	}

	var chain []*Node

	for curr := targetNode.parent; curr != nil; curr = curr.parent {
		chain = append(chain, curr)
	}

	slices.Reverse(chain)

	return chain
}

// HasAnyRole checks if the node has any of the given roles.
func (targetNode *Node) HasAnyRole(roles ...Role) bool {
	if targetNode == nil || len(targetNode.Roles) == 0 {
		return false
	}

	for _, role := range roles {
		if slices.Contains(targetNode.Roles, role) {
			return true
		}
	}

	return false
}

// HasAllRoles checks if the node has all of the given roles.
func (targetNode *Node) HasAllRoles(roles ...Role) bool {
	if targetNode == nil || len(targetNode.Roles) == 0 {
		return false
	}

	for _, role := range roles {
		if !slices.Contains(targetNode.Roles, role) {
			return false
		}
	}

	return true
}

// HasAnyType checks if the node has any of the given types.
func (targetNode *Node) HasAnyType(nodeTypes ...Type) bool {
	if targetNode == nil {
		return false
	}

	return slices.Contains(nodeTypes, targetNode.Type)
}

// Prop returns a property value or the empty string.
func (targetNode *Node) Prop(key string) string {
	if targetNode == nil || targetNode.Props == nil {
		return ""
	}

	return targetNode.Props[key]
}

// String returns a compact single-line representation of the node.
func (targetNode *Node) String() string {
	if targetNode == nil {
		return "nil"
	}

	var buf strings.Builder

	buf.WriteString("Node{Type:")
	buf.WriteString(string(targetNode.Type))

	if name := targetNode.Name(); name != "" {
		buf.WriteString(",Name:")
		buf.WriteString(name)
	} else if targetNode.Token != "" {
		buf.WriteString(",Token:")
		buf.WriteString(targetNode.Token)
	}

	if targetNode.Pos != nil && targetNode.Pos.StartLine > 0 {
		buf.WriteString(",Line:")
		buf.WriteString(strconv.FormatUint(uint64(targetNode.Pos.StartLine), 10))
	}

	buf.WriteString("}")

	return buf.String()
}
