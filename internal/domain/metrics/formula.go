package metrics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/shopspring/decimal"
)

// Formula configuración del constructor de fórmulas guardada como JSON en el mapeo.
// ItemAliases asocia cada variable de la fórmula con el ID de su fuente
// (ítem para mapeos de campo, mapeo hijo para secciones y plantillas).
type Formula struct {
	Expression             string            `json:"formula"`
	SourceItems            []string          `json:"sourceItems,omitempty"`
	ItemAliases            map[string]string `json:"itemAliases"`
	RoundTo                *int32            `json:"roundTo,omitempty"`
	MinValue               *decimal.Decimal  `json:"minValue,omitempty"`
	MaxValue               *decimal.Decimal  `json:"maxValue,omitempty"`
	ValidateDivisionByZero bool              `json:"validateDivisionByZero"`

	tree ast.Node
}

// ParseFormula decodifica y valida la configuración. Una cadena vacía es ErrMissingFormula.
func ParseFormula(raw string) (*Formula, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrMissingFormula
	}
	f := Formula{ValidateDivisionByZero: true}
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, fmt.Errorf("%w: fórmula JSON inválida: %v", domain.ErrInvalidInput, err)
	}
	if strings.TrimSpace(f.Expression) == "" {
		return nil, domain.ErrMissingFormula
	}
	if len(f.ItemAliases) == 0 {
		return nil, fmt.Errorf("%w: la fórmula no define variables", domain.ErrInvalidInput)
	}
	if err := f.compile(); err != nil {
		return nil, err
	}
	return &f, nil
}

// JSON serializa la configuración.
func (f *Formula) JSON() string {
	b, _ := json.Marshal(f)
	return string(b)
}

// compile verifica tipos y variables con expr y conserva el árbol para evaluarlo en decimal.
func (f *Formula) compile() error {
	env := make(map[string]any, len(f.ItemAliases))
	for alias := range f.ItemAliases {
		env[alias] = float64(0)
	}
	if _, err := expr.Compile(f.Expression, expr.Env(env)); err != nil {
		return fmt.Errorf("%w: fórmula inválida: %v", domain.ErrInvalidInput, err)
	}
	tree, err := parser.Parse(f.Expression)
	if err != nil {
		return fmt.Errorf("%w: fórmula inválida: %v", domain.ErrInvalidInput, err)
	}
	if err := supported(tree.Node); err != nil {
		return err
	}
	f.tree = tree.Node
	return nil
}

// Evaluate calcula la fórmula en aritmética decimal exacta, redondea y acota.
// Todos los alias deben tener valor.
func (f *Formula) Evaluate(vars map[string]decimal.Decimal) (decimal.Decimal, error) {
	for alias := range f.ItemAliases {
		if _, ok := vars[alias]; !ok {
			return decimal.Zero, fmt.Errorf("%w: falta valor para %q", domain.ErrInvalidInput, alias)
		}
	}
	if f.tree == nil {
		if err := f.compile(); err != nil {
			return decimal.Zero, err
		}
	}
	if f.ValidateDivisionByZero && zeroDivisor(f.tree, vars) {
		return decimal.Zero, domain.ErrDivisionByZero
	}

	out, err := eval(f.tree, vars)
	if err != nil {
		return decimal.Zero, err
	}
	result, err := asDecimal(out)
	if err != nil {
		return decimal.Zero, err
	}
	if f.RoundTo != nil {
		result = result.Round(*f.RoundTo)
	}
	if f.MinValue != nil && result.LessThan(*f.MinValue) {
		result = *f.MinValue
	}
	if f.MaxValue != nil && result.GreaterThan(*f.MaxValue) {
		result = *f.MaxValue
	}
	return result, nil
}

// zeroDivisor busca en todo el árbol, incluidas ramas no tomadas, un divisor
// que sea un alias con valor cero.
func zeroDivisor(node ast.Node, vars map[string]decimal.Decimal) bool {
	switch n := node.(type) {
	case *ast.BinaryNode:
		if n.Operator == "/" || n.Operator == "%" {
			if id, ok := n.Right.(*ast.IdentifierNode); ok {
				if v, ok := vars[id.Value]; ok && v.IsZero() {
					return true
				}
			}
		}
		return zeroDivisor(n.Left, vars) || zeroDivisor(n.Right, vars)
	case *ast.UnaryNode:
		return zeroDivisor(n.Node, vars)
	case *ast.ConditionalNode:
		return zeroDivisor(n.Cond, vars) || zeroDivisor(n.Exp1, vars) || zeroDivisor(n.Exp2, vars)
	case *ast.BuiltinNode:
		for _, a := range n.Arguments {
			if zeroDivisor(a, vars) {
				return true
			}
		}
	}
	return false
}

var builtins = map[string]bool{"abs": true, "min": true, "max": true, "round": true, "floor": true, "ceil": true}

func supported(node ast.Node) error {
	switch n := node.(type) {
	case *ast.IdentifierNode, *ast.IntegerNode, *ast.FloatNode, *ast.BoolNode:
		return nil
	case *ast.UnaryNode:
		return supported(n.Node)
	case *ast.BinaryNode:
		if err := supported(n.Left); err != nil {
			return err
		}
		return supported(n.Right)
	case *ast.ConditionalNode:
		for _, c := range []ast.Node{n.Cond, n.Exp1, n.Exp2} {
			if err := supported(c); err != nil {
				return err
			}
		}
		return nil
	case *ast.BuiltinNode:
		if !builtins[n.Name] {
			return fmt.Errorf("%w: función %q no soportada en fórmulas", domain.ErrInvalidInput, n.Name)
		}
		for _, a := range n.Arguments {
			if err := supported(a); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: expresión no soportada en fórmulas", domain.ErrInvalidInput)
}

// eval recorre el árbol; cada nodo produce decimal.Decimal o bool.
func eval(node ast.Node, vars map[string]decimal.Decimal) (any, error) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		v, ok := vars[n.Value]
		if !ok {
			return nil, fmt.Errorf("%w: falta valor para %q", domain.ErrInvalidInput, n.Value)
		}
		return v, nil
	case *ast.IntegerNode:
		return decimal.NewFromInt(int64(n.Value)), nil
	case *ast.FloatNode:
		// El literal se relee desde su forma más corta para no arrastrar el error binario.
		return decimal.RequireFromString(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
	case *ast.BoolNode:
		return n.Value, nil
	case *ast.UnaryNode:
		return evalUnary(n, vars)
	case *ast.ConditionalNode:
		c, err := evalBool(n.Cond, vars)
		if err != nil {
			return nil, err
		}
		if c {
			return eval(n.Exp1, vars)
		}
		return eval(n.Exp2, vars)
	case *ast.BinaryNode:
		return evalBinary(n, vars)
	case *ast.BuiltinNode:
		return evalBuiltin(n, vars)
	}
	return nil, fmt.Errorf("%w: expresión no soportada en fórmulas", domain.ErrInvalidInput)
}

func evalUnary(n *ast.UnaryNode, vars map[string]decimal.Decimal) (any, error) {
	switch n.Operator {
	case "!", "not":
		b, err := evalBool(n.Node, vars)
		return !b, err
	case "-":
		d, err := evalDecimal(n.Node, vars)
		return d.Neg(), err
	case "+":
		return evalDecimal(n.Node, vars)
	}
	return nil, fmt.Errorf("%w: operador %q no soportado", domain.ErrInvalidInput, n.Operator)
}

func evalBinary(n *ast.BinaryNode, vars map[string]decimal.Decimal) (any, error) {
	switch n.Operator {
	case "&&", "and":
		l, err := evalBool(n.Left, vars)
		if err != nil || !l {
			return false, err
		}
		return evalBool(n.Right, vars)
	case "||", "or":
		l, err := evalBool(n.Left, vars)
		if err != nil || l {
			return l, err
		}
		return evalBool(n.Right, vars)
	case "==", "!=":
		l, err := eval(n.Left, vars)
		if err != nil {
			return nil, err
		}
		r, err := eval(n.Right, vars)
		if err != nil {
			return nil, err
		}
		eq := equal(l, r)
		if n.Operator == "!=" {
			return !eq, nil
		}
		return eq, nil
	}

	l, err := evalDecimal(n.Left, vars)
	if err != nil {
		return nil, err
	}
	r, err := evalDecimal(n.Right, vars)
	if err != nil {
		return nil, err
	}
	switch n.Operator {
	case "+":
		return l.Add(r), nil
	case "-":
		return l.Sub(r), nil
	case "*":
		return l.Mul(r), nil
	case "/":
		if r.IsZero() {
			return nil, domain.ErrDivisionByZero
		}
		return l.Div(r), nil
	case "%":
		if r.IsZero() {
			return nil, domain.ErrDivisionByZero
		}
		return l.Mod(r), nil
	case "**", "^":
		if !r.Equal(r.Truncate(0)) {
			return nil, fmt.Errorf("%w: el exponente debe ser entero", domain.ErrInvalidInput)
		}
		if l.IsZero() && r.IsNegative() {
			return nil, domain.ErrDivisionByZero
		}
		return l.Pow(r), nil
	case "<":
		return l.LessThan(r), nil
	case "<=":
		return l.LessThanOrEqual(r), nil
	case ">":
		return l.GreaterThan(r), nil
	case ">=":
		return l.GreaterThanOrEqual(r), nil
	}
	return nil, fmt.Errorf("%w: operador %q no soportado", domain.ErrInvalidInput, n.Operator)
}

func evalBuiltin(n *ast.BuiltinNode, vars map[string]decimal.Decimal) (any, error) {
	if len(n.Arguments) == 0 {
		return nil, fmt.Errorf("%w: %s requiere argumentos", domain.ErrInvalidInput, n.Name)
	}
	args := make([]decimal.Decimal, len(n.Arguments))
	for i, a := range n.Arguments {
		d, err := evalDecimal(a, vars)
		if err != nil {
			return nil, err
		}
		args[i] = d
	}
	switch n.Name {
	case "abs":
		return args[0].Abs(), nil
	case "round":
		return args[0].Round(0), nil
	case "floor":
		return args[0].Floor(), nil
	case "ceil":
		return args[0].Ceil(), nil
	case "min":
		return decimal.Min(args[0], args[1:]...), nil
	case "max":
		return decimal.Max(args[0], args[1:]...), nil
	}
	return nil, fmt.Errorf("%w: función %q no soportada en fórmulas", domain.ErrInvalidInput, n.Name)
}

func evalDecimal(node ast.Node, vars map[string]decimal.Decimal) (decimal.Decimal, error) {
	v, err := eval(node, vars)
	if err != nil {
		return decimal.Zero, err
	}
	return asDecimal(v)
}

func evalBool(node ast.Node, vars map[string]decimal.Decimal) (bool, error) {
	v, err := eval(node, vars)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: se esperaba una condición", domain.ErrInvalidInput)
	}
	return b, nil
}

func equal(l, r any) bool {
	if lb, ok := l.(bool); ok {
		rb, ok := r.(bool)
		return ok && lb == rb
	}
	ld, lok := l.(decimal.Decimal)
	rd, rok := r.(decimal.Decimal)
	return lok && rok && ld.Equal(rd)
}

// asDecimal convierte el resultado; un booleano vale 1 o 0.
func asDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case bool:
		if n {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	}
	return decimal.Zero, fmt.Errorf("%w: la fórmula debe devolver un número (obtuvo %T)", domain.ErrInvalidInput, v)
}
