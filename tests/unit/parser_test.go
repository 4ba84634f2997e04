package unit_test

import (
	"testing"

	"github.com/sandrolain/jexpr/pkg/ast"
	"github.com/sandrolain/jexpr/pkg/parser"
)

// Helper functions

func parseExpr(t *testing.T, input string) *ast.Node {
	t.Helper()
	expr, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", input, err)
	}
	return expr.Root()
}

func expectParseError(t *testing.T, input string) {
	t.Helper()
	_, err := parser.Parse(input)
	if err == nil {
		t.Fatalf("Expected error parsing %q but got none", input)
	}
}

func checkNode(t *testing.T, node *ast.Node, expectedType ast.NodeType) {
	t.Helper()
	if node == nil {
		t.Fatal("Node is nil")
	}
	if node.Type != expectedType {
		t.Errorf("Expected node type %s, got %s", expectedType, node.Type)
	}
}

// Literal tests

func TestParseLiterals(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		node := parseExpr(t, `"hello"`)
		checkNode(t, node, ast.NodeString)
		if node.Str != "hello" {
			t.Errorf("got %q, want hello", node.Str)
		}
	})
	t.Run("empty string", func(t *testing.T) {
		node := parseExpr(t, `""`)
		checkNode(t, node, ast.NodeString)
		if node.Str != "" {
			t.Errorf("got %q, want empty", node.Str)
		}
	})
	t.Run("number int", func(t *testing.T) {
		node := parseExpr(t, "42")
		checkNode(t, node, ast.NodeNumber)
		if node.Number != 42.0 {
			t.Errorf("got %v, want 42", node.Number)
		}
	})
	t.Run("number float", func(t *testing.T) {
		node := parseExpr(t, "3.14")
		checkNode(t, node, ast.NodeNumber)
		if node.Number != 3.14 {
			t.Errorf("got %v, want 3.14", node.Number)
		}
	})
	t.Run("number scientific", func(t *testing.T) {
		node := parseExpr(t, "1e10")
		checkNode(t, node, ast.NodeNumber)
		if node.Number != 1e10 {
			t.Errorf("got %v, want 1e10", node.Number)
		}
	})
	t.Run("boolean true", func(t *testing.T) {
		node := parseExpr(t, "true")
		checkNode(t, node, ast.NodeBool)
		if node.Bool != true {
			t.Error("expected true")
		}
	})
	t.Run("boolean false", func(t *testing.T) {
		node := parseExpr(t, "false")
		checkNode(t, node, ast.NodeBool)
		if node.Bool != false {
			t.Error("expected false")
		}
	})
	t.Run("null", func(t *testing.T) {
		node := parseExpr(t, "null")
		checkNode(t, node, ast.NodeNull)
	})
}

func TestParseVariables(t *testing.T) {
	tests := []struct {
		name  string
		input string
		value string
	}{
		{"context", "$", ""},
		{"parent context", "$$", "$"},
		{"named variable", "$name", "name"},
		{"complex name", "$myVariable123", "myVariable123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodeVar)
			if node.Name != tt.value {
				t.Errorf("got %q, want %q", node.Name, tt.value)
			}
		})
	}
}

func TestParseNames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		value string
	}{
		{"simple name", "field", "field"},
		{"with underscore", "field_name", "field_name"},
		{"with number", "field123", "field123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A bare name with no predicate/dot attached is returned
			// directly as a NodeName, not wrapped in a NodePath.
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodeName)
			if node.Name != tt.value {
				t.Errorf("got %q, want %q", node.Name, tt.value)
			}
		})
	}
}

// Operator tests

func TestParseBinaryOperators(t *testing.T) {
	tests := []struct {
		name string
		input string
		op   ast.BinaryOp
	}{
		{"addition", "1 + 2", ast.OpAdd},
		{"subtraction", "5 - 3", ast.OpSubtract},
		{"multiplication", "4 * 3", ast.OpMultiply},
		{"division", "10 / 2", ast.OpDivide},
		{"modulo", "10 % 3", ast.OpModulus},
		{"equality", "a = b", ast.OpEqual},
		{"inequality", "a != b", ast.OpNotEqual},
		{"less than", "a < b", ast.OpLessThan},
		{"less equal", "a <= b", ast.OpLessThanEqual},
		{"greater than", "a > b", ast.OpGreaterThan},
		{"greater equal", "a >= b", ast.OpGreaterThanEqual},
		{"and", "a and b", ast.OpAnd},
		{"or", "a or b", ast.OpOr},
		{"in", "a in b", ast.OpIn},
		{"concatenation", `"a" & "b"`, ast.OpConcat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodeBinary)
			if node.Op != tt.op {
				t.Errorf("got op %v, want %v", node.Op, tt.op)
			}
			if node.LHS == nil {
				t.Error("Left-hand side is nil")
			}
			if node.RHS == nil {
				t.Error("Right-hand side is nil")
			}
		})
	}
}

func TestParseUnaryMinus(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"negation", "-5"},
		{"negation expression", "-(a + b)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodeUnary)
			if node.UOp != ast.UnaryMinus {
				t.Errorf("expected UnaryMinus, got %v", node.UOp)
			}
			if node.Expr == nil {
				t.Error("Expression is nil")
			}
		})
	}
}

// Path tests

func TestParsePaths(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		numSteps int
	}{
		{"simple path", "a.b", 2},
		{"nested path", "a.b.c", 3},
		{"deep path", "a.b.c.d.e", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodePath)
			if len(node.Steps) != tt.numSteps {
				t.Errorf("got %d steps, want %d", len(node.Steps), tt.numSteps)
			}
		})
	}
}

func TestParsePathWithVariable(t *testing.T) {
	node := parseExpr(t, "$.name")
	checkNode(t, node, ast.NodePath)
	if len(node.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(node.Steps))
	}
	checkNode(t, node.Steps[0], ast.NodeVar)
	checkNode(t, node.Steps[1], ast.NodeName)
}

// Grouping tests

func TestParseGrouping(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"simple grouping", "(1 + 2)"},
		{"nested grouping", "((a + b) * c)"},
		{"multiple operations", "(1 + 2) * (3 + 4)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			if node == nil {
				t.Fatal("Node is nil")
			}
		})
	}
}

func TestParseEmptyGrouping(t *testing.T) {
	node := parseExpr(t, "()")
	checkNode(t, node, ast.NodeBlock)
	if len(node.Exprs) != 0 {
		t.Errorf("expected empty block, got %d statements", len(node.Exprs))
	}
}

func TestParseBlockSequence(t *testing.T) {
	node := parseExpr(t, "($a := 1; $b := 2; $a + $b)")
	checkNode(t, node, ast.NodeBlock)
	if len(node.Exprs) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(node.Exprs))
	}
}

// Constructor tests

func TestParseArrayConstructor(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expectedSize int
	}{
		{"empty array", "[]", 0},
		{"single element", "[1]", 1},
		{"multiple elements", "[1, 2, 3]", 3},
		{"mixed types", `[1, "two", true]`, 3},
		{"nested arrays", "[[1, 2], [3, 4]]", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodeUnary)
			if node.UOp != ast.UnaryArray {
				t.Errorf("expected UnaryArray, got %v", node.UOp)
			}
			if !node.ConsArray {
				t.Error("expected ConsArray to be set for a literal array")
			}
			if len(node.Exprs) != tt.expectedSize {
				t.Errorf("Expected %d elements, got %d", tt.expectedSize, len(node.Exprs))
			}
		})
	}
}

func TestParseObjectConstructor(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expectedSize int
	}{
		{"empty object", "{}", 0},
		{"single property", `{"name": "value"}`, 1},
		{"multiple properties", `{"a": 1, "b": 2}`, 2},
		{"mixed values", `{"num": 42, "str": "text", "bool": true}`, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodeUnary)
			if node.UOp != ast.UnaryObject {
				t.Errorf("expected UnaryObject, got %v", node.UOp)
			}
			if len(node.Pairs) != tt.expectedSize {
				t.Errorf("Expected %d properties, got %d", tt.expectedSize, len(node.Pairs))
			}
		})
	}
}

// Filter (predicate) tests

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		stepIdx  int
	}{
		{"simple filter", "items[price > 100]", 0},
		{"filter on path", "data.items[active = true]", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodePath)
			step := node.Steps[tt.stepIdx]
			if len(step.Predicates) == 0 {
				t.Error("expected step to carry a predicate")
			}
		})
	}
}

// Precedence tests

func TestOperatorPrecedence(t *testing.T) {
	t.Run("multiplication before addition", func(t *testing.T) {
		node := parseExpr(t, "1 + 2 * 3")
		checkNode(t, node, ast.NodeBinary)
		if node.Op != ast.OpAdd {
			t.Errorf("root should be +, got %v", node.Op)
		}
		if node.RHS.Type != ast.NodeBinary || node.RHS.Op != ast.OpMultiply {
			t.Errorf("RHS should be *, got %v", node.RHS.Op)
		}
	})

	t.Run("division before subtraction", func(t *testing.T) {
		node := parseExpr(t, "10 - 4 / 2")
		checkNode(t, node, ast.NodeBinary)
		if node.Op != ast.OpSubtract {
			t.Errorf("root should be -, got %v", node.Op)
		}
		if node.RHS.Type != ast.NodeBinary || node.RHS.Op != ast.OpDivide {
			t.Errorf("RHS should be /, got %v", node.RHS.Op)
		}
	})

	t.Run("comparison before and", func(t *testing.T) {
		node := parseExpr(t, "a > 5 and b < 10")
		checkNode(t, node, ast.NodeBinary)
		if node.Op != ast.OpAnd {
			t.Errorf("root should be and, got %v", node.Op)
		}
		if node.LHS.Op != ast.OpGreaterThan {
			t.Errorf("LHS should be >, got %v", node.LHS.Op)
		}
		if node.RHS.Op != ast.OpLessThan {
			t.Errorf("RHS should be <, got %v", node.RHS.Op)
		}
	})

	t.Run("grouping overrides precedence", func(t *testing.T) {
		node := parseExpr(t, "(1 + 2) * 3")
		checkNode(t, node, ast.NodeBinary)
		if node.Op != ast.OpMultiply {
			t.Errorf("root should be *, got %v", node.Op)
		}
		if node.LHS.Type != ast.NodeBinary || node.LHS.Op != ast.OpAdd {
			t.Errorf("LHS should be +, got %v", node.LHS.Op)
		}
	})
}

func TestParseOperatorAssociativity(t *testing.T) {
	t.Run("left associative addition", func(t *testing.T) {
		node := parseExpr(t, "1 + 2 + 3")
		checkNode(t, node, ast.NodeBinary)
		if node.Op != ast.OpAdd {
			t.Errorf("root should be +, got %v", node.Op)
		}
		if node.LHS.Type != ast.NodeBinary || node.LHS.Op != ast.OpAdd {
			t.Errorf("LHS should be +, got %v", node.LHS.Op)
		}
	})

	t.Run("left associative subtraction", func(t *testing.T) {
		node := parseExpr(t, "10 - 5 - 2")
		checkNode(t, node, ast.NodeBinary)
		if node.Op != ast.OpSubtract {
			t.Errorf("root should be -, got %v", node.Op)
		}
		if node.LHS.Type != ast.NodeBinary || node.LHS.Op != ast.OpSubtract {
			t.Errorf("LHS should be -, got %v", node.LHS.Op)
		}
	})
}

// Complex expression tests

func TestParseComplexExpressions(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"nested paths with filter", "data.items[price > 100].name"},
		{"arithmetic in filter", "items[price * quantity > 1000]"},
		{"object with expressions", `{"total": price * quantity, "tax": price * 0.1}`},
		{"array of expressions", "[a + b, c * d, e / f]"},
		{"mixed operators", "a + b * c - d / e"},
		{"logical with comparison", "(a > 5 and b < 10) or c = 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			if node == nil {
				t.Fatal("Node is nil")
			}
		})
	}
}

// Error tests

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unclosed paren", "(1 + 2"},
		{"unclosed bracket", "[1, 2"},
		{"unclosed brace", "{\"a\": 1"},
		{"missing operand", "1 +"},
		{"empty input", ""},
		{"incomplete path", "a."},
		{"incomplete filter", "items["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectParseError(t, tt.input)
		})
	}
}

// Edge cases

func TestParseEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"whitespace only", "   "},
		{"multiple spaces", "1    +    2"},
		{"newlines", "1\n+\n2"},
		{"tabs", "1\t+\t2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _ = parser.Parse(tt.input)
		})
	}
}

func TestParseNumberVariations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"negative int", "-42", true},
		{"negative float", "-3.14", true},
		{"negative scientific", "-1e10", true},
		{"zero", "0", true},
		{"negative zero", "-0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.valid {
				node := parseExpr(t, tt.input)
				if node == nil {
					t.Fatal("Node is nil")
				}
			}
		})
	}
}

func TestParseComplexFilters(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"multiple filters", "items[price > 100][quantity < 50]"},
		{"filter with path", "data.items[item.price > 100]"},
		{"filter with nested expression", "items[(price + tax) > 100]"},
		{"filter on variable", "$var[price > 100]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			if node == nil {
				t.Fatal("Node is nil")
			}
		})
	}
}

func TestParseErrorRecovery(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"double operator", "1 + + 2"},
		{"operator at end", "1 + 2 *"},
		{"mismatched brackets", "[1, 2}"},
		{"unclosed string in array", `["unclosed]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectParseError(t, tt.input)
		})
	}
}

func TestParseSpecialCharacters(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unicode in string", `"hello 世界"`},
		{"escaped quotes", `"hello \"world\""`},
		{"escaped backslash", `"path\\to\\file"`},
		{"newline in string", `"line1\nline2"`},
		{"tab in string", `"col1\tcol2"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodeString)
		})
	}
}

// Function call tests

func TestParseFunctionCalls(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		argCount int
	}{
		{"no arguments", "sum()", 0},
		{"single argument", "abs(-5)", 1},
		{"multiple arguments", "power(2, 8)", 2},
		{"nested call", "sum(abs(-5), abs(-3))", 2},
		{"with path", "map(items, getName)", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodeFunc)
			if len(node.Args) != tt.argCount {
				t.Errorf("Expected %d arguments, got %d", tt.argCount, len(node.Args))
			}
		})
	}
}

func TestParseComplexFunctionCalls(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"string argument", `upper("hello")`},
		{"expression argument", "sum(a + b, c * d)"},
		{"array argument", "sum([1, 2, 3])"},
		{"chained calls", "upper(lower(name))"},
		{"lambda argument", "map(items, function($x) { $x * 2 })"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			if node.Type != ast.NodeFunc {
				t.Errorf("Expected function node, got %s", node.Type)
			}
		})
	}
}

func TestParsePartialApplication(t *testing.T) {
	node := parseExpr(t, "sum(?, 2)")
	checkNode(t, node, ast.NodeFunc)
	if !node.IsPartial {
		t.Error("expected IsPartial to be set")
	}
}

// Conditional expression tests

func TestParseConditionals(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"simple condition", "a > 5 ? 'high' : 'low'"},
		{"with expressions", "price > 100 ? price * 0.9 : price"},
		{"nested condition", "a > 5 ? (b > 10 ? 'very high' : 'high') : 'low'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodeTernary)
			if node.Cond == nil {
				t.Error("Cond is nil")
			}
			if node.Truthy == nil {
				t.Error("Truthy is nil")
			}
			if node.Falsy == nil {
				t.Error("Falsy is nil")
			}
		})
	}
}

func TestParseConditionalPrecedence(t *testing.T) {
	t.Run("condition binds loosely", func(t *testing.T) {
		node := parseExpr(t, "a + b > 5 ? 'high' : 'low'")
		checkNode(t, node, ast.NodeTernary)
		if node.Cond.Type != ast.NodeBinary || node.Cond.Op != ast.OpGreaterThan {
			t.Errorf("Cond should be >, got %v", node.Cond.Op)
		}
	})

	t.Run("multiple conditions", func(t *testing.T) {
		node := parseExpr(t, "a ? b : c ? d : e")
		checkNode(t, node, ast.NodeTernary)
		if node.Falsy.Type != ast.NodeTernary {
			t.Errorf("Falsy should be ternary, got %s", node.Falsy.Type)
		}
	})
}

// Lambda function tests

func TestParseLambda(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		paramCount int
	}{
		{"no parameters", "function() { 'value' }", 0},
		{"single parameter", "function($x) { $x * 2 }", 1},
		{"multiple parameters", "function($a, $b) { $a + $b }", 2},
		{"complex body", "function($x) { $x > 5 ? $x * 2 : $x }", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodeLambda)
			if len(node.Params) != tt.paramCount {
				t.Errorf("Expected %d parameters, got %d", tt.paramCount, len(node.Params))
			}
			if node.Body == nil {
				t.Error("Lambda body is nil")
			}
		})
	}
}

func TestParseLambdaInContext(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"in function call", "map(items, function($x) { $x * 2 })"},
		{"in array", "[function($x) { $x + 1 }, function($x) { $x - 1 }]"},
		{"in conditional", "hasFunc ? function($x) { $x * 2 } : function($x) { $x }"},
		{"nested lambda", "function($x) { function($y) { $x + $y } }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			if node == nil {
				t.Fatal("Node is nil")
			}
		})
	}
}

// Range operator tests

func TestParseRange(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"simple range", "1..10"},
		{"with variables", "$start..$end"},
		{"with expressions", "(a + 1)..(b * 2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodeBinary)
			if node.Op != ast.OpRange {
				t.Errorf("Expected range operator, got %v", node.Op)
			}
			if node.LHS == nil || node.RHS == nil {
				t.Error("Range operands are nil")
			}
		})
	}
}

func TestParseRangeInArray(t *testing.T) {
	input := "[1..5, 10..15]"
	node := parseExpr(t, input)

	checkNode(t, node, ast.NodeUnary)
	if node.UOp != ast.UnaryArray {
		t.Fatalf("Expected array, got UOp %v", node.UOp)
	}

	if len(node.Exprs) != 2 {
		t.Fatalf("Expected 2 elements, got %d", len(node.Exprs))
	}

	for i, expr := range node.Exprs {
		if expr.Type != ast.NodeBinary || expr.Op != ast.OpRange {
			t.Errorf("Element %d: expected range operator, got %s", i, expr.Type)
		}
	}
}

// Apply operator tests

func TestParseApply(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"simple apply", "data ~> $sum"},
		{"with function", "items ~> $map(function($x) { $x * 2 })"},
		{"chained apply", "data ~> $filter(exists) ~> $sort"},
		{"with path", "$.items ~> $count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			if node.Type != ast.NodeBinary || node.Op != ast.OpApply {
				t.Errorf("expected top-level ~> apply, got %s/%v", node.Type, node.Op)
			}
		})
	}
}

// Assignment tests

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		varName string
	}{
		{"simple assignment", "$x := 5", "x"},
		{"with expression", "$result := a + b", "result"},
		{"context assignment", "$ := data", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			checkNode(t, node, ast.NodeBinary)
			if node.Op != ast.OpBind {
				t.Errorf("expected OpBind, got %v", node.Op)
			}
			if node.LHS.Type != ast.NodeVar || node.LHS.Name != tt.varName {
				t.Errorf("got LHS var %q, want %q", node.LHS.Name, tt.varName)
			}
			if node.RHS == nil {
				t.Error("Assignment RHS is nil")
			}
		})
	}
}

func TestParseAssignmentErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"non-variable LHS", "5 := 10"},
		{"expression LHS", "(a + b) := 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectParseError(t, tt.input)
		})
	}
}

// Sort tests

func TestParseSort(t *testing.T) {
	node := parseExpr(t, "items^(price)")
	checkNode(t, node, ast.NodeSort)
	if len(node.Sorts) != 1 {
		t.Fatalf("expected 1 sort spec, got %d", len(node.Sorts))
	}
	if node.Sorts[0].Descending {
		t.Error("expected ascending sort")
	}
}

func TestParseSortDescending(t *testing.T) {
	node := parseExpr(t, "items^(>price, <name)")
	checkNode(t, node, ast.NodeSort)
	if len(node.Sorts) != 2 {
		t.Fatalf("expected 2 sort specs, got %d", len(node.Sorts))
	}
	if !node.Sorts[0].Descending {
		t.Error("expected first spec descending")
	}
	if node.Sorts[1].Descending {
		t.Error("expected second spec ascending")
	}
}

// Advanced combinations

func TestParseAdvancedCombinations(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"function with conditional", "map(items, function($x) { $x > 5 ? $x * 2 : $x })"},
		{"conditional with range", "useRange ? 1..10 : [1, 2, 3]"},
		{"apply with lambda", "data ~> function($d) { $d.items }"},
		{"nested functions", "filter(map(items, function($x) { $x * 2 }), function($x) { $x > 10 })"},
		{"all operators", "$result := data.items[price > 100] ~> map(function($x) { $x.quantity }) ~> sum()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			if node == nil {
				t.Fatal("Node is nil")
			}
		})
	}
}

func TestParseAdvancedPrecedence(t *testing.T) {
	t.Run("range vs arithmetic", func(t *testing.T) {
		node := parseExpr(t, "1 + 2..5 + 6")
		checkNode(t, node, ast.NodeBinary)
		if node.Op != ast.OpRange {
			t.Errorf("Root should be .., got %v", node.Op)
		}
	})

	t.Run("apply vs other operators", func(t *testing.T) {
		node := parseExpr(t, "a + b ~> func")
		checkNode(t, node, ast.NodeBinary)
		if node.Op != ast.OpApply {
			t.Errorf("Root should be ~>, got %v", node.Op)
		}
	})

	t.Run("assignment lowest precedence", func(t *testing.T) {
		node := parseExpr(t, "$x := a + b * c")
		checkNode(t, node, ast.NodeBinary)
		if node.Op != ast.OpBind {
			t.Errorf("Root should be :=, got %v", node.Op)
		}
	})
}
