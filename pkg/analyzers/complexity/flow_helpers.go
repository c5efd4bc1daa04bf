package complexity

import (
	"strings"
	"unicode"

	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// binaryOperator returns the normalized operator of a binary node. Frontends
// record it in the "operator" prop; the token is used as a fallback.
func binaryOperator(n *node.Node) string {
	if n == nil {
		return ""
	}

	if op := normalizeOperatorText(n.Prop(node.PropOperator)); op != "" {
		return op
	}

	return normalizeOperatorText(n.Token)
}

func normalizeOperatorText(raw string) string {
	if raw == "" {
		return ""
	}

	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, raw)

	switch compact {
	case "&&", "||", "and", "or", "AND", "OR",
		"<", ">", "<=", ">=", "==", "!=":
		return compact
	default:
		return ""
	}
}

func isLogicalOperatorToken(operator string) bool {
	switch operator {
	case "&&", "||", "and", "or", "AND", "OR":
		return true
	default:
		return false
	}
}

func isLogicalOperation(n *node.Node) bool {
	return n.Type == node.UASTBinaryOp && isLogicalOperatorToken(binaryOperator(n))
}

func isElseIfNode(parent, child *node.Node, childIdx int) bool {
	if parent == nil || child == nil {
		return false
	}

	return parent.Type == node.UASTIf && child.Type == node.UASTIf && childIdx >= 2
}

func isDefaultCase(caseNode *node.Node) bool {
	if caseNode == nil {
		return false
	}

	token := strings.TrimSpace(strings.ToLower(caseNode.Token))
	if token == "" {
		return false
	}

	return strings.HasPrefix(token, "default")
}

// walkOwnBody visits the body of an operation without entering nested type
// or operation declarations, which are measured on their own.
func walkOwnBody(op *node.Node, fn func(*node.Node) bool) {
	body := op.Body()
	if body == nil {
		return
	}

	body.Walk(func(curr *node.Node) bool {
		if curr != body && curr.Category() != node.CategoryOther {
			return false
		}

		return fn(curr)
	})
}
