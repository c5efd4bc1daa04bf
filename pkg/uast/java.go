package uast

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

const anonymousTypeName = "anonymous"

// NewJavaParser returns the Java frontend.
func NewJavaParser() Parser {
	return newTreeSitterParser("java", []string{".java"}, func(src []byte) lowerer {
		jl := &javaLowering{lowering: &lowering{src: src}}
		jl.fe = jl

		return jl
	})
}

type javaLowering struct {
	*lowering
}

// javaModifiers is the parsed modifier list of a declaration.
type javaModifiers struct {
	public, private, static, abstract, final bool
}

func (jl *javaLowering) file(root sitter.Node) *node.Node {
	file := jl.newNode(node.UASTFile, root)

	for _, child := range namedChildren(root) {
		switch child.Type() {
		case "package_declaration":
			if name, ok := firstOfType(child, "scoped_identifier", "identifier"); ok {
				setProp(file, node.PropPackage, jl.text(name))
			}
		case "import_declaration":
			imp := jl.newNode(node.UASTImport, child)
			imp.Token = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(jl.text(child), "import"), ";"))
			addChildren(file, imp)
		default:
			addChildren(file, jl.typeDecl(child))
		}
	}

	return file
}

func (jl *javaLowering) modifiers(decl sitter.Node) javaModifiers {
	var mods javaModifiers

	modNode, ok := firstOfType(decl, "modifiers")
	if !ok {
		return mods
	}

	for _, word := range strings.Fields(jl.text(modNode)) {
		switch word {
		case "public":
			mods.public = true
		case "private":
			mods.private = true
		case "static":
			mods.static = true
		case "abstract":
			mods.abstract = true
		case "final":
			mods.final = true
		}
	}

	return mods
}

func (mods javaModifiers) roles() []node.Role {
	var roles []node.Role

	if mods.public {
		roles = append(roles, node.RolePublic)
	}

	if mods.private {
		roles = append(roles, node.RolePrivate)
	}

	if mods.static {
		roles = append(roles, node.RoleStatic)
	}

	if mods.abstract {
		roles = append(roles, node.RoleAbstract)
	}

	return roles
}

// typeDecl lowers a class-like declaration, or returns nil for anything else.
func (jl *javaLowering) typeDecl(decl sitter.Node) *node.Node {
	var (
		nodeType    node.Type
		role        node.Role
		inInterface bool
	)

	switch decl.Type() {
	case "class_declaration", "record_declaration":
		nodeType, role = node.UASTClass, node.RoleClass
	case "interface_declaration", "annotation_type_declaration":
		nodeType, role, inInterface = node.UASTInterface, node.RoleInterface, true
	case "enum_declaration":
		nodeType, role = node.UASTEnum, node.RoleEnum
	default:
		return nil
	}

	mods := jl.modifiers(decl)
	out := jl.newNode(nodeType, decl, append([]node.Role{role, node.RoleDeclaration}, mods.roles()...)...)
	setProp(out, node.PropKind, strings.TrimSuffix(decl.Type(), "_declaration"))

	if name, ok := fieldNode(decl, "name"); ok {
		setProp(out, node.PropName, jl.text(name))
	}

	if decl.Type() == "record_declaration" {
		if params, ok := fieldNode(decl, "parameters"); ok {
			for _, component := range childrenOfType(params, "formal_parameter") {
				field := jl.newNode(node.UASTField, component, node.RolePrivate, node.RoleMember)
				setProp(field, node.PropName, jl.fieldText(component, "name"))
				addChildren(out, field)
			}
		}
	}

	if body, ok := fieldNode(decl, "body"); ok {
		jl.members(out, body, inInterface)
	}

	return out
}

func (jl *javaLowering) members(owner *node.Node, body sitter.Node, inInterface bool) {
	for _, member := range namedChildren(body) {
		switch member.Type() {
		case "field_declaration", "constant_declaration":
			jl.fields(owner, member, inInterface)
		case "method_declaration":
			addChildren(owner, jl.method(member, inInterface))
		case "constructor_declaration", "compact_constructor_declaration":
			addChildren(owner, jl.constructor(member, owner))
		case "enum_body_declarations", "annotation_type_body":
			jl.members(owner, member, inInterface)
		default:
			addChildren(owner, jl.typeDecl(member))
		}
	}
}

func (jl *javaLowering) fields(owner *node.Node, decl sitter.Node, inInterface bool) {
	mods := jl.modifiers(decl)
	if inInterface {
		mods.public, mods.static, mods.final = true, true, true
	}

	roles := append([]node.Role{node.RoleMember}, mods.roles()...)
	if mods.static && mods.final {
		roles = append(roles, node.RoleConstant)
	}

	for _, declarator := range childrenOfType(decl, "variable_declarator") {
		field := jl.newNode(node.UASTField, declarator, roles...)
		setProp(field, node.PropName, jl.fieldText(declarator, "name"))

		if value, ok := fieldNode(declarator, "value"); ok {
			addChildren(field, jl.expr(value))
		}

		addChildren(owner, field)
	}
}

func (jl *javaLowering) method(decl sitter.Node, inInterface bool) *node.Node {
	mods := jl.modifiers(decl)
	body, hasBody := fieldNode(decl, "body")

	if inInterface {
		mods.public = !mods.private
		mods.abstract = !hasBody
	}

	out := jl.newNode(node.UASTMethod, decl, append([]node.Role{node.RoleFunction, node.RoleDeclaration}, mods.roles()...)...)
	setProp(out, node.PropName, jl.fieldText(decl, "name"))
	jl.parameters(out, decl)

	if hasBody {
		addChildren(out, jl.block(body, node.RoleBody))
	}

	return out
}

func (jl *javaLowering) constructor(decl sitter.Node, owner *node.Node) *node.Node {
	mods := jl.modifiers(decl)
	roles := append([]node.Role{node.RoleFunction, node.RoleDeclaration, node.RoleConstructor}, mods.roles()...)

	out := jl.newNode(node.UASTMethod, decl, roles...)

	name := jl.fieldText(decl, "name")
	if name == "" {
		name = owner.Name()
	}

	setProp(out, node.PropName, name)
	jl.parameters(out, decl)

	if body, ok := fieldNode(decl, "body"); ok {
		addChildren(out, jl.block(body, node.RoleBody))
	}

	return out
}

func (jl *javaLowering) parameters(op *node.Node, decl sitter.Node) {
	params, ok := fieldNode(decl, "parameters")
	if !ok {
		return
	}

	for _, param := range childrenOfType(params, "formal_parameter", "spread_parameter") {
		out := jl.newNode(node.UASTParameter, param, node.RoleParameter)

		name := jl.fieldText(param, "name")
		if name == "" {
			if declarator, found := firstOfType(param, "variable_declarator"); found {
				name = jl.fieldText(declarator, "name")
			}
		}

		setProp(out, node.PropName, name)
		addChildren(op, out)
	}
}

func (jl *javaLowering) statement(n sitter.Node) *node.Node {
	switch n.Type() {
	case "block":
		return jl.block(n)
	case "if_statement":
		return jl.ifStatement(n)
	case "while_statement", "do_statement":
		out := jl.newNode(node.UASTLoop, n, node.RoleStatement)
		setProp(out, node.PropKind, strings.TrimSuffix(n.Type(), "_statement"))
		addChildren(out,
			jl.condition(n, jl.expr(n.ChildByFieldName("condition"))),
			jl.statementBlock(n.ChildByFieldName("body")))

		return out
	case "for_statement":
		return jl.forStatement(n)
	case "enhanced_for_statement":
		out := jl.newNode(node.UASTLoop, n, node.RoleStatement)
		setProp(out, node.PropKind, "foreach")
		addChildren(out,
			jl.condition(n, jl.expr(n.ChildByFieldName("value"))),
			jl.statementBlock(n.ChildByFieldName("body")))

		return out
	case "switch_statement", "switch_expression":
		return addRoles(jl.switchNode(n), node.RoleStatement)
	case "try_statement", "try_with_resources_statement":
		return jl.tryStatement(n)
	case "return_statement":
		return jl.generic(n, node.UASTReturn, node.RoleStatement, node.RoleReturn)
	case "throw_statement":
		return jl.generic(n, node.UASTThrow, node.RoleStatement)
	case "break_statement":
		return jl.newNode(node.UASTBreak, n, node.RoleStatement)
	case "continue_statement":
		return jl.newNode(node.UASTContinue, n, node.RoleStatement)
	case "expression_statement":
		children := namedChildren(n)
		if len(children) == 0 {
			return nil
		}

		return addRoles(jl.expr(children[0]), node.RoleStatement)
	case "local_variable_declaration":
		out := jl.newNode(node.UASTVariable, n, node.RoleStatement, node.RoleDeclaration)

		for _, declarator := range childrenOfType(n, "variable_declarator") {
			if value, ok := fieldNode(declarator, "value"); ok {
				addChildren(out, jl.expr(value))
			}
		}

		return out
	case "labeled_statement":
		children := namedChildren(n)
		if len(children) == 0 {
			return nil
		}

		return jl.statement(children[len(children)-1])
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		return jl.typeDecl(n)
	default:
		return jl.generic(n, node.UASTSynthetic, node.RoleStatement)
	}
}

func (jl *javaLowering) ifStatement(n sitter.Node) *node.Node {
	out := jl.newNode(node.UASTIf, n, node.RoleStatement)
	addChildren(out,
		jl.condition(n, jl.expr(n.ChildByFieldName("condition"))),
		jl.statementBlock(n.ChildByFieldName("consequence")))

	if alt, ok := fieldNode(n, "alternative"); ok {
		if alt.Type() == "if_statement" {
			addChildren(out, jl.ifStatement(alt))
		} else {
			addChildren(out, jl.statementBlock(alt))
		}
	}

	return out
}

func (jl *javaLowering) forStatement(n sitter.Node) *node.Node {
	out := jl.newNode(node.UASTLoop, n, node.RoleStatement)
	setProp(out, node.PropKind, "for")

	body := n.ChildByFieldName("body")
	condition := n.ChildByFieldName("condition")
	cond := jl.condition(n, jl.expr(condition))
	clause := jl.newNode(node.UASTSynthetic, n)
	setProp(clause, node.PropKind, "for_clause")

	for _, child := range namedChildren(n) {
		if sameNode(child, body) || sameNode(child, condition) {
			continue
		}

		addChildren(clause, jl.expr(child))
	}

	addChildren(out, cond, clause, jl.statementBlock(body))

	return out
}

func (jl *javaLowering) switchNode(n sitter.Node) *node.Node {
	out := jl.newNode(node.UASTSwitch, n)

	if subject, ok := fieldNode(n, "condition"); ok {
		addChildren(out, jl.condition(subject, jl.expr(subject)))
	}

	body, ok := fieldNode(n, "body")
	if !ok {
		return out
	}

	for _, group := range namedChildren(body) {
		var current *node.Node

		for _, child := range namedChildren(group) {
			if child.Type() == "switch_label" {
				current = jl.newNode(node.UASTCase, child, node.RoleBranch)
				current.Token = strings.TrimSpace(jl.text(child))
				addChildren(out, current)

				continue
			}

			if current == nil {
				continue
			}

			if group.Type() == "switch_rule" && child.Type() != "block" &&
				child.Type() != "expression_statement" && child.Type() != "throw_statement" {
				addChildren(current, jl.expr(child))

				continue
			}

			addChildren(current, jl.statement(child))
		}
	}

	return out
}

func (jl *javaLowering) tryStatement(n sitter.Node) *node.Node {
	out := jl.newNode(node.UASTTry, n, node.RoleStatement)

	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "block":
			addChildren(out, jl.block(child))
		case "resource_specification":
			addChildren(out, jl.expr(child))
		case "catch_clause":
			catch := jl.newNode(node.UASTCatch, child)

			if body, ok := fieldNode(child, "body"); ok {
				addChildren(catch, jl.block(body))
			}

			addChildren(out, catch)
		case "finally_clause":
			finally := jl.newNode(node.UASTFinally, child)

			if body, ok := firstOfType(child, "block"); ok {
				addChildren(finally, jl.block(body))
			}

			addChildren(out, finally)
		}
	}

	return out
}

func (jl *javaLowering) expression(n sitter.Node) (*node.Node, bool) {
	switch n.Type() {
	case "method_invocation":
		out := jl.newNode(node.UASTCall, n, node.RoleCall)
		setProp(out, node.PropName, jl.fieldText(n, "name"))

		if object, ok := fieldNode(n, "object"); ok {
			addChildren(out, jl.expr(object))
		}

		jl.arguments(out, n)

		return out, true
	case "object_creation_expression":
		out := jl.newNode(node.UASTCall, n, node.RoleCall)
		setProp(out, node.PropName, jl.fieldText(n, "type"))
		setProp(out, node.PropKind, "new")
		jl.arguments(out, n)

		if body, ok := firstOfType(n, "class_body"); ok {
			anon := jl.newNode(node.UASTClass, body, node.RoleClass)
			setProp(anon, node.PropName, anonymousTypeName)
			setProp(anon, node.PropKind, anonymousTypeName)
			jl.members(anon, body, false)
			addChildren(out, anon)
		}

		return out, true
	case "ternary_expression":
		out := jl.newNode(node.UASTIf, n)
		setProp(out, node.PropKind, "ternary")
		addChildren(out,
			jl.condition(n, jl.expr(n.ChildByFieldName("condition"))),
			jl.expr(n.ChildByFieldName("consequence")),
			jl.expr(n.ChildByFieldName("alternative")))

		return out, true
	case "lambda_expression":
		out := jl.newNode(node.UASTLambda, n, node.RoleLambda)

		if body, ok := fieldNode(n, "body"); ok {
			if body.Type() == "block" {
				addChildren(out, jl.block(body))
			} else {
				addChildren(out, jl.expr(body))
			}
		}

		return out, true
	case "assignment_expression", "update_expression":
		out := jl.newNode(node.UASTAssignment, n, node.RoleAssignment)

		if op, ok := fieldNode(n, "operator"); ok {
			setProp(out, node.PropOperator, jl.text(op))
		}

		for _, child := range namedChildren(n) {
			addChildren(out, jl.expr(child))
		}

		return out, true
	case "switch_expression":
		return jl.switchNode(n), true
	default:
		return nil, false
	}
}

func (jl *javaLowering) arguments(call *node.Node, n sitter.Node) {
	args, ok := fieldNode(n, "arguments")
	if !ok {
		return
	}

	for _, arg := range namedChildren(args) {
		addChildren(call, jl.expr(arg))
	}
}
