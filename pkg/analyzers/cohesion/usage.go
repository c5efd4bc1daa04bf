package cohesion

import (
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// Function is an operation of a type together with the fields it uses.
type Function struct {
	Node      *node.Node
	Name      string
	Variables []string
}

// fieldNames returns the declared field names of a type, in declaration order.
func fieldNames(typeNode *node.Node) []string {
	fields := typeNode.Fields()
	names := make([]string, 0, len(fields))

	for _, field := range fields {
		if name := field.Name(); name != "" && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	return names
}

// collectFunctions returns the operations of a type that have a body and are
// not constructors, each with the fields referenced by its own body.
func collectFunctions(typeNode *node.Node) []Function {
	fields := fieldNames(typeNode)

	var functions []Function

	for _, op := range typeNode.Operations() {
		if op.Body() == nil || isConstructor(op) {
			continue
		}

		functions = append(functions, Function{
			Node:      op,
			Name:      op.Name(),
			Variables: usedFields(op, fields),
		})
	}

	return functions
}

// usedFields lists the fields referenced by identifiers in the body of op.
// Parameters and locals that shadow a field are not told apart.
func usedFields(op *node.Node, fields []string) []string {
	var used []string

	body := op.Body()

	body.Walk(func(curr *node.Node) bool {
		if curr != body && curr.Category() != node.CategoryOther {
			return false
		}

		if curr.Type == node.UASTIdentifier && slices.Contains(fields, curr.Token) && !slices.Contains(used, curr.Token) {
			used = append(used, curr.Token)
		}

		return true
	})

	return used
}

func isConstructor(op *node.Node) bool {
	return op.HasAnyRole(node.RoleConstructor)
}

func isPublic(n *node.Node) bool {
	return n.HasAnyRole(node.RolePublic, node.RoleExported)
}

// isAccessor reports whether op is a getter (no parameters, body returning a
// field) or a setter (set-prefixed, one parameter, body assigning a field).
func isAccessor(op *node.Node, fields []string) bool {
	body := op.Body()
	if body == nil || len(body.Children) != 1 || isConstructor(op) {
		return false
	}

	stmt := body.Children[0]

	switch {
	case stmt.Type == node.UASTReturn && len(op.Parameters()) == 0:
		return isPlainFieldRead(stmt, fields)
	case stmt.Type == node.UASTAssignment && len(op.Parameters()) == 1 && hasSetterName(op.Name()):
		return referencesField(stmt, fields)
	default:
		return false
	}
}

func hasSetterName(name string) bool {
	return len(name) > len("set") && strings.EqualFold(name[:len("set")], "set")
}

// isPlainFieldRead accepts a return whose value is a field reference without
// calls or computation.
func isPlainFieldRead(ret *node.Node, fields []string) bool {
	plain := true

	ret.Walk(func(curr *node.Node) bool {
		if curr.HasAnyType(node.UASTCall, node.UASTBinaryOp, node.UASTIf, node.UASTLambda) {
			plain = false
		}

		return plain
	})

	return plain && referencesField(ret, fields)
}

func referencesField(n *node.Node, fields []string) bool {
	found := n.Find(func(curr *node.Node) bool {
		return curr.Type == node.UASTIdentifier && slices.Contains(fields, curr.Token)
	})

	return len(found) > 0
}
