package uast

import (
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// NewGoParser returns the Go frontend. Struct, interface and named types
// become type nodes; methods are attached to their receiver type when it is
// declared in the same file.
func NewGoParser() Parser {
	return newTreeSitterParser("go", []string{".go"}, func(src []byte) lowerer {
		gl := &goLowering{lowering: &lowering{src: src}}
		gl.fe = gl

		return gl
	})
}

type goLowering struct {
	*lowering
}

func (gl *goLowering) file(root sitter.Node) *node.Node {
	file := gl.newNode(node.UASTFile, root)
	types := make(map[string]*node.Node)

	var methods []sitter.Node

	for _, child := range namedChildren(root) {
		switch child.Type() {
		case "package_clause":
			if name, ok := firstOfType(child, "package_identifier"); ok {
				setProp(file, node.PropPackage, gl.text(name))
			}
		case "import_declaration":
			for _, spec := range importSpecs(child) {
				imp := gl.newNode(node.UASTImport, spec)
				imp.Token = strings.Trim(gl.fieldText(spec, "path"), "\"`")
				addChildren(file, imp)
			}
		case "type_declaration":
			for _, decl := range gl.typeDecls(child) {
				types[decl.Name()] = decl
				addChildren(file, decl)
			}
		case "function_declaration":
			addChildren(file, gl.function(child, node.UASTFunction))
		case "method_declaration":
			methods = append(methods, child)
		}
	}

	for _, decl := range methods {
		method := gl.function(decl, node.UASTMethod)
		receiver := gl.receiverType(decl)
		setProp(method, node.PropReceiver, receiver)

		if owner, ok := types[receiver]; ok {
			addChildren(owner, method)

			continue
		}

		addChildren(file, method)
	}

	return file
}

func importSpecs(decl sitter.Node) []sitter.Node {
	if list, ok := firstOfType(decl, "import_spec_list"); ok {
		return childrenOfType(list, "import_spec")
	}

	return childrenOfType(decl, "import_spec")
}

// exportRoles returns the visibility roles Go derives from a name.
func exportRoles(name string) []node.Role {
	first, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(first) {
		return []node.Role{node.RolePublic, node.RoleExported}
	}

	return []node.Role{node.RolePrivate}
}

func (gl *goLowering) typeDecls(decl sitter.Node) []*node.Node {
	var result []*node.Node

	for _, spec := range childrenOfType(decl, "type_spec", "type_alias") {
		name := gl.fieldText(spec, "name")
		body := spec.ChildByFieldName("type")

		var out *node.Node

		switch body.Type() {
		case "struct_type":
			out = gl.newNode(node.UASTStruct, spec, append([]node.Role{node.RoleStruct, node.RoleDeclaration}, exportRoles(name)...)...)
			setProp(out, node.PropKind, "struct")
			gl.structFields(out, body)
		case "interface_type":
			out = gl.newNode(node.UASTInterface, spec, append([]node.Role{node.RoleInterface, node.RoleDeclaration}, exportRoles(name)...)...)
			setProp(out, node.PropKind, "interface")
			gl.interfaceMethods(out, body)
		default:
			out = gl.newNode(node.UASTStruct, spec, append([]node.Role{node.RoleDeclaration}, exportRoles(name)...)...)
			setProp(out, node.PropKind, "named")
		}

		setProp(out, node.PropName, name)
		result = append(result, out)
	}

	return result
}

func (gl *goLowering) structFields(owner *node.Node, structType sitter.Node) {
	list, ok := firstOfType(structType, "field_declaration_list")
	if !ok {
		return
	}

	for _, decl := range childrenOfType(list, "field_declaration") {
		names := childrenOfType(decl, "field_identifier")

		// Embedded fields are named after their type.
		if len(names) == 0 {
			field := gl.newNode(node.UASTField, decl, node.RoleMember)
			name := embeddedName(gl.fieldText(decl, "type"))
			setProp(field, node.PropName, name)
			addRoles(field, exportRoles(name)...)
			addChildren(owner, field)

			continue
		}

		for _, ident := range names {
			name := gl.text(ident)
			field := gl.newNode(node.UASTField, ident, append([]node.Role{node.RoleMember}, exportRoles(name)...)...)
			setProp(field, node.PropName, name)
			addChildren(owner, field)
		}
	}
}

func embeddedName(typeText string) string {
	typeText = strings.TrimLeft(typeText, "*")
	if idx := strings.IndexByte(typeText, '['); idx >= 0 {
		typeText = typeText[:idx]
	}

	if idx := strings.LastIndexByte(typeText, '.'); idx >= 0 {
		typeText = typeText[idx+1:]
	}

	return typeText
}

func (gl *goLowering) interfaceMethods(owner *node.Node, iface sitter.Node) {
	for _, elem := range childrenOfType(iface, "method_elem", "method_spec") {
		name := gl.fieldText(elem, "name")
		roles := append([]node.Role{node.RoleFunction, node.RoleDeclaration, node.RoleAbstract}, exportRoles(name)...)

		method := gl.newNode(node.UASTMethod, elem, roles...)
		setProp(method, node.PropName, name)
		gl.parameters(method, elem.ChildByFieldName("parameters"))
		addChildren(owner, method)
	}
}

func (gl *goLowering) function(decl sitter.Node, nodeType node.Type) *node.Node {
	name := gl.fieldText(decl, "name")
	roles := append([]node.Role{node.RoleFunction, node.RoleDeclaration}, exportRoles(name)...)

	out := gl.newNode(nodeType, decl, roles...)
	setProp(out, node.PropName, name)
	gl.parameters(out, decl.ChildByFieldName("parameters"))

	if body, ok := fieldNode(decl, "body"); ok {
		addChildren(out, gl.block(body, node.RoleBody))
	}

	return out
}

// receiverType returns the base type name of a method receiver.
func (gl *goLowering) receiverType(decl sitter.Node) string {
	receiver, ok := fieldNode(decl, "receiver")
	if !ok {
		return ""
	}

	var name string

	var find func(n sitter.Node) bool

	find = func(n sitter.Node) bool {
		if n.Type() == "type_identifier" {
			name = gl.text(n)

			return true
		}

		for _, child := range namedChildren(n) {
			if find(child) {
				return true
			}
		}

		return false
	}

	find(receiver)

	return name
}

func (gl *goLowering) parameters(op *node.Node, params sitter.Node) {
	for _, decl := range childrenOfType(params, "parameter_declaration", "variadic_parameter_declaration") {
		names := childrenOfType(decl, "identifier")
		if len(names) == 0 {
			addChildren(op, gl.newNode(node.UASTParameter, decl, node.RoleParameter))

			continue
		}

		for _, ident := range names {
			param := gl.newNode(node.UASTParameter, ident, node.RoleParameter)
			setProp(param, node.PropName, gl.text(ident))
			addChildren(op, param)
		}
	}
}

func isGoStatement(n sitter.Node) bool {
	switch n.Type() {
	case "block", "short_var_declaration", "var_declaration", "const_declaration", "type_declaration":
		return true
	default:
		return strings.HasSuffix(n.Type(), "_statement")
	}
}

func (gl *goLowering) statement(n sitter.Node) *node.Node {
	switch n.Type() {
	case "block":
		return gl.block(n)
	case "if_statement":
		return gl.ifStatement(n)
	case "for_statement":
		return gl.forStatement(n)
	case "expression_switch_statement", "type_switch_statement", "select_statement":
		return gl.switchStatement(n)
	case "return_statement":
		return gl.generic(n, node.UASTReturn, node.RoleStatement, node.RoleReturn)
	case "go_statement", "defer_statement":
		return gl.generic(n, node.UASTSynthetic, node.RoleStatement)
	case "expression_statement":
		children := namedChildren(n)
		if len(children) == 0 {
			return nil
		}

		return addRoles(gl.expr(children[0]), node.RoleStatement)
	case "assignment_statement", "inc_statement", "dec_statement":
		out := gl.newNode(node.UASTAssignment, n, node.RoleStatement, node.RoleAssignment)

		if op, ok := fieldNode(n, "operator"); ok {
			setProp(out, node.PropOperator, gl.text(op))
		}

		for _, child := range namedChildren(n) {
			addChildren(out, gl.expr(child))
		}

		return out
	case "short_var_declaration", "var_declaration", "const_declaration":
		out := gl.newNode(node.UASTVariable, n, node.RoleStatement, node.RoleDeclaration)
		setProp(out, node.PropKind, n.Type())

		for _, child := range namedChildren(n) {
			addChildren(out, gl.expr(child))
		}

		return out
	case "labeled_statement":
		children := namedChildren(n)
		if len(children) < 2 {
			return nil
		}

		return gl.statement(children[len(children)-1])
	case "break_statement":
		return gl.newNode(node.UASTBreak, n, node.RoleStatement)
	case "continue_statement":
		return gl.newNode(node.UASTContinue, n, node.RoleStatement)
	case "empty_statement":
		return nil
	case "type_declaration":
		out := gl.newNode(node.UASTSynthetic, n, node.RoleStatement)
		setProp(out, node.PropKind, n.Type())

		for _, decl := range gl.typeDecls(n) {
			addChildren(out, decl)
		}

		return out
	default:
		return gl.generic(n, node.UASTSynthetic, node.RoleStatement)
	}
}

func (gl *goLowering) ifStatement(n sitter.Node) *node.Node {
	out := gl.newNode(node.UASTIf, n, node.RoleStatement)

	cond := gl.condition(n)

	if init, ok := fieldNode(n, "initializer"); ok {
		addChildren(cond, gl.statement(init))
	}

	addChildren(cond, gl.expr(n.ChildByFieldName("condition")))
	addChildren(out, cond, gl.statementBlock(n.ChildByFieldName("consequence")))

	if alt, ok := fieldNode(n, "alternative"); ok {
		if alt.Type() == "if_statement" {
			addChildren(out, gl.ifStatement(alt))
		} else {
			addChildren(out, gl.statementBlock(alt))
		}
	}

	return out
}

func (gl *goLowering) forStatement(n sitter.Node) *node.Node {
	out := gl.newNode(node.UASTLoop, n, node.RoleStatement)
	body := n.ChildByFieldName("body")
	cond := gl.condition(n)

	var clause *node.Node

	for _, child := range namedChildren(n) {
		if sameNode(child, body) {
			continue
		}

		switch child.Type() {
		case "for_clause":
			setProp(out, node.PropKind, "for")
			addChildren(cond, gl.expr(child.ChildByFieldName("condition")))

			clause = gl.newNode(node.UASTSynthetic, child)
			setProp(clause, node.PropKind, "for_clause")
			addChildren(clause,
				gl.statementOrExpr(child.ChildByFieldName("initializer")),
				gl.statementOrExpr(child.ChildByFieldName("update")))
		case "range_clause":
			setProp(out, node.PropKind, "range")
			addChildren(cond, gl.expr(child.ChildByFieldName("right")))
		default:
			setProp(out, node.PropKind, "while")
			addChildren(cond, gl.expr(child))
		}
	}

	if out.Prop(node.PropKind) == "" {
		setProp(out, node.PropKind, "forever")
	}

	addChildren(out, cond, clause, gl.statementBlock(body))

	return out
}

func (gl *goLowering) statementOrExpr(n sitter.Node) *node.Node {
	if n.IsNull() {
		return nil
	}

	if isGoStatement(n) {
		return gl.statement(n)
	}

	return gl.expr(n)
}

func (gl *goLowering) switchStatement(n sitter.Node) *node.Node {
	out := gl.newNode(node.UASTSwitch, n, node.RoleStatement)
	setProp(out, node.PropKind, strings.TrimSuffix(n.Type(), "_statement"))

	cond := gl.condition(n)
	addChildren(cond,
		gl.statementOrExpr(n.ChildByFieldName("initializer")),
		gl.expr(n.ChildByFieldName("value")))
	addChildren(out, cond)

	for _, clause := range namedChildren(n) {
		var token string

		switch clause.Type() {
		case "expression_case", "type_case", "communication_case":
			token = "case"
		case "default_case":
			token = "default"
		default:
			continue
		}

		caseNode := gl.newNode(node.UASTCase, clause, node.RoleBranch)
		caseNode.Token = token
		communication := clause.ChildByFieldName("communication")

		for _, child := range namedChildren(clause) {
			switch {
			case sameNode(child, communication):
				addChildren(caseNode, gl.statement(child))
			case child.Type() == "statement_list":
				for _, stmt := range namedChildren(child) {
					addChildren(caseNode, gl.statement(stmt))
				}
			case isGoStatement(child):
				addChildren(caseNode, gl.statement(child))
			default:
				addChildren(caseNode, gl.expr(child))
			}
		}

		addChildren(out, caseNode)
	}

	return out
}

func (gl *goLowering) expression(n sitter.Node) (*node.Node, bool) {
	switch n.Type() {
	case "call_expression":
		out := gl.newNode(node.UASTCall, n, node.RoleCall)
		function := n.ChildByFieldName("function")

		switch function.Type() {
		case "identifier":
			setProp(out, node.PropName, gl.text(function))
		case "selector_expression":
			setProp(out, node.PropName, gl.fieldText(function, "field"))
			addChildren(out, gl.expr(function.ChildByFieldName("operand")))
		default:
			addChildren(out, gl.expr(function))
		}

		for _, arg := range namedChildren(n.ChildByFieldName("arguments")) {
			addChildren(out, gl.expr(arg))
		}

		return out, true
	case "func_literal":
		out := gl.newNode(node.UASTLambda, n, node.RoleLambda)
		gl.parameters(out, n.ChildByFieldName("parameters"))

		if body, ok := fieldNode(n, "body"); ok {
			addChildren(out, gl.block(body))
		}

		return out, true
	default:
		return nil, false
	}
}
