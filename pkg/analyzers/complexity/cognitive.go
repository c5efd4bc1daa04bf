package complexity

import (
	"math"

	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// CognitiveMetric computes SonarSource cognitive complexity of an operation.
type CognitiveMetric struct {
	metrics.MetricMeta
}

// NewCognitiveMetric creates the cognitive complexity metric.
func NewCognitiveMetric() *CognitiveMetric {
	return &CognitiveMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "COGNITIVE",
			MetricDisplayName: "Cognitive Complexity",
			MetricDescription: "How hard an operation is to understand: structural increments for " +
				"control flow, weighted by nesting, plus boolean operator sequences and recursion.",
			MetricType: metrics.TypeComplexity,
		},
	}
}

// Compute calculates cognitive complexity for the body of op.
func (m *CognitiveMetric) Compute(_ metrics.Querier, op *node.Node, _ metrics.Version) float64 {
	body := op.Body()
	if body == nil {
		return math.NaN()
	}

	calculator := &cognitiveCalculator{functionName: op.Name()}

	for idx, child := range body.Children {
		calculator.walkNode(child, body, idx, 0)
	}

	return float64(calculator.complexity)
}

type cognitiveCalculator struct {
	functionName string
	complexity   int
}

func (c *cognitiveCalculator) walkNode(curr, parent *node.Node, childIdx, nesting int) {
	if curr == nil || curr.Category() != node.CategoryOther {
		return
	}

	switch curr.Type {
	case node.UASTIf:
		c.processIfNode(curr, parent, childIdx, nesting)

		return
	case node.UASTLoop, node.UASTSwitch, node.UASTCatch, node.UASTMatch:
		c.addNestingIncrement(nesting)

		for idx, child := range curr.Children {
			c.walkNode(child, curr, idx, nesting+1)
		}

		return
	case node.UASTLambda:
		for idx, child := range curr.Children {
			c.walkNode(child, curr, idx, nesting+1)
		}

		return
	case node.UASTCall:
		if c.isRecursiveCall(curr) {
			c.complexity++
		}
	}

	if curr.HasAnyRole(node.RoleCondition) || curr.Type == node.UASTReturn || curr.Type == node.UASTAssignment {
		c.addLogicalSequenceComplexity(curr)
	}

	for idx, child := range curr.Children {
		c.walkNode(child, curr, idx, nesting)
	}
}

func (c *cognitiveCalculator) processIfNode(ifNode, parent *node.Node, childIdx, nesting int) {
	if isElseIfNode(parent, ifNode, childIdx) {
		c.complexity++
	} else {
		c.addNestingIncrement(nesting)
	}

	if len(ifNode.Children) > 0 {
		c.addLogicalSequenceComplexity(ifNode.Children[0])
		c.walkChildren(ifNode.Children[0], nesting)
	}

	if len(ifNode.Children) > 1 {
		c.walkNode(ifNode.Children[1], ifNode, 1, nesting+1)
	}

	for idx := 2; idx < len(ifNode.Children); idx++ {
		child := ifNode.Children[idx]

		switch child.Type {
		case node.UASTIf:
			c.walkNode(child, ifNode, idx, nesting)
		case node.UASTBlock:
			// An else branch adds one flat increment.
			c.complexity++
			c.walkNode(child, ifNode, idx, nesting+1)
		default:
			c.walkNode(child, ifNode, idx, nesting+1)
		}
	}
}

// walkChildren descends into a condition without counting its logical
// operators a second time.
func (c *cognitiveCalculator) walkChildren(cond *node.Node, nesting int) {
	for idx, child := range cond.Children {
		if child.HasAnyRole(node.RoleCondition) {
			continue
		}

		c.walkNode(child, cond, idx, nesting)
	}
}

func (c *cognitiveCalculator) addNestingIncrement(nesting int) {
	c.complexity += nesting + 1
}

// addLogicalSequenceComplexity adds one per run of identical boolean
// operators, so "a && b && c" costs 1 and "a && b || c" costs 2.
func (c *cognitiveCalculator) addLogicalSequenceComplexity(expr *node.Node) {
	var operators []string

	collectLogicalOperators(expr, &operators)

	if len(operators) == 0 {
		return
	}

	c.complexity++

	lastOp := operators[0]
	for _, op := range operators[1:] {
		if op != lastOp {
			c.complexity++
			lastOp = op
		}
	}
}

func collectLogicalOperators(curr *node.Node, operators *[]string) {
	if curr == nil {
		return
	}

	switch curr.Type {
	case node.UASTIf, node.UASTLambda:
		return
	}

	if curr.Type == node.UASTBinaryOp && len(curr.Children) >= 2 {
		collectLogicalOperators(curr.Children[0], operators)

		if op := binaryOperator(curr); isLogicalOperatorToken(op) {
			*operators = append(*operators, op)
		}

		collectLogicalOperators(curr.Children[1], operators)

		return
	}

	for _, child := range curr.Children {
		collectLogicalOperators(child, operators)
	}
}

func (c *cognitiveCalculator) isRecursiveCall(callNode *node.Node) bool {
	if c.functionName == "" {
		return false
	}

	return extractCallName(callNode) == c.functionName
}

func extractCallName(callNode *node.Node) string {
	if name := callNode.Prop(node.PropName); name != "" {
		return name
	}

	for _, child := range callNode.Children {
		if child != nil && child.HasAnyRole(node.RoleName) && child.Token != "" {
			return child.Token
		}
	}

	return ""
}
