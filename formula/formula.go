// Package formula represents linear integer arithmetic over nonnegative
// variables and builds the thread-state equation of a TTD.
package formula

import (
	"sort"
	"strconv"
	"strings"
)

// Var is an integer variable, identified by name.
type Var string

// N0 counts the threads initially in the initial local state.
const N0 Var = "n0"

// X returns the firing-count variable of transition id.
func X(id int) Var {
	return Var("x" + strconv.Itoa(id))
}

// Term is Coef * Var.
type Term struct {
	Coef int64
	Var  Var
}

// Linear is the expression sum(Terms) + Const.
type Linear struct {
	Terms []Term
	Const int64
}

// Const returns the constant expression k.
func Const(k int64) Linear {
	return Linear{Const: k}
}

// Sum returns the sum of vs with unit coefficients.
func Sum(vs ...Var) Linear {
	l := Linear{Terms: make([]Term, 0, len(vs))}
	for _, v := range vs {
		l.Terms = append(l.Terms, Term{Coef: 1, Var: v})
	}
	return l
}

// Plus returns l + m.
func (l Linear) Plus(m Linear) Linear {
	terms := make([]Term, 0, len(l.Terms)+len(m.Terms))
	terms = append(terms, l.Terms...)
	terms = append(terms, m.Terms...)
	return Linear{Terms: terms, Const: l.Const + m.Const}
}

// Minus returns l - m.
func (l Linear) Minus(m Linear) Linear {
	return l.Plus(m.Scale(-1))
}

// Scale returns k * l.
func (l Linear) Scale(k int64) Linear {
	terms := make([]Term, len(l.Terms))
	for i, t := range l.Terms {
		terms[i] = Term{Coef: k * t.Coef, Var: t.Var}
	}
	return Linear{Terms: terms, Const: k * l.Const}
}

// Normalize merges terms over the same variable, drops zero coefficients
// and orders the terms by variable name.
func (l Linear) Normalize() Linear {
	coefs := make(map[Var]int64, len(l.Terms))
	for _, t := range l.Terms {
		coefs[t.Var] += t.Coef
	}
	n := Linear{Const: l.Const}
	for v, c := range coefs {
		if c != 0 {
			n.Terms = append(n.Terms, Term{Coef: c, Var: v})
		}
	}
	sort.Slice(n.Terms, func(i, j int) bool { return varLess(n.Terms[i].Var, n.Terms[j].Var) })
	return n
}

// IsConst reports whether l has no variable with a nonzero coefficient.
func (l Linear) IsConst() bool {
	return len(l.Normalize().Terms) == 0
}

// Vars returns the variables of l with nonzero coefficients.
func (l Linear) Vars() []Var {
	n := l.Normalize()
	vs := make([]Var, len(n.Terms))
	for i, t := range n.Terms {
		vs[i] = t.Var
	}
	return vs
}

// Eval evaluates l under the valuation val.
func (l Linear) Eval(val func(Var) int64) int64 {
	sum := l.Const
	for _, t := range l.Terms {
		sum += t.Coef * val(t.Var)
	}
	return sum
}

func (l Linear) String() string {
	var sb strings.Builder
	for i, t := range l.Terms {
		c := t.Coef
		switch {
		case i == 0 && c < 0:
			sb.WriteString("-")
			c = -c
		case i > 0 && c < 0:
			sb.WriteString(" - ")
			c = -c
		case i > 0:
			sb.WriteString(" + ")
		}
		if c != 1 {
			sb.WriteString(strconv.FormatInt(c, 10))
			sb.WriteString("*")
		}
		sb.WriteString(string(t.Var))
	}
	switch {
	case len(l.Terms) == 0:
		sb.WriteString(strconv.FormatInt(l.Const, 10))
	case l.Const > 0:
		sb.WriteString(" + ")
		sb.WriteString(strconv.FormatInt(l.Const, 10))
	case l.Const < 0:
		sb.WriteString(" - ")
		sb.WriteString(strconv.FormatInt(-l.Const, 10))
	}
	return sb.String()
}

// varLess orders n0 first and x-variables by their numeric index.
func varLess(a, b Var) bool {
	ka, ia := varKey(a)
	kb, ib := varKey(b)
	if ka != kb {
		return ka < kb
	}
	if ia != ib {
		return ia < ib
	}
	return a < b
}

func varKey(v Var) (int, int) {
	if v == N0 {
		return 0, 0
	}
	if strings.HasPrefix(string(v), "x") {
		if i, err := strconv.Atoi(string(v[1:])); err == nil {
			return 1, i
		}
	}
	return 2, 0
}

// Op is a comparison operator.
type Op int

const (
	// Ge is >=.
	Ge Op = iota
	// Gt is >.
	Gt
	// Eq is =.
	Eq
)

func (op Op) String() string {
	switch op {
	case Ge:
		return ">="
	case Gt:
		return ">"
	case Eq:
		return "="
	}
	return "?"
}

// Constraint is Left Op Right.
type Constraint struct {
	Left  Linear
	Op    Op
	Right Linear
}

// AtLeast returns the constraint l >= r.
func AtLeast(l, r Linear) Constraint { return Constraint{Left: l, Op: Ge, Right: r} }

// Greater returns the constraint l > r.
func Greater(l, r Linear) Constraint { return Constraint{Left: l, Op: Gt, Right: r} }

// Equal returns the constraint l = r.
func Equal(l, r Linear) Constraint { return Constraint{Left: l, Op: Eq, Right: r} }

// Diff returns Left - Right, normalized. The constraint is equivalent to
// Diff() Op 0.
func (c Constraint) Diff() Linear {
	return c.Left.Minus(c.Right).Normalize()
}

// Vars returns the variables occurring in c.
func (c Constraint) Vars() []Var {
	return c.Left.Plus(c.Right).Vars()
}

// Holds evaluates c under val.
func (c Constraint) Holds(val func(Var) int64) bool {
	d := c.Diff().Eval(val)
	switch c.Op {
	case Ge:
		return d >= 0
	case Gt:
		return d > 0
	case Eq:
		return d == 0
	}
	return false
}

func (c Constraint) String() string {
	return c.Left.String() + " " + c.Op.String() + " " + c.Right.String()
}

// Vars returns the variables occurring in cs, ordered.
func Vars(cs []Constraint) []Var {
	seen := make(map[Var]bool)
	var vs []Var
	for _, c := range cs {
		for _, v := range c.Vars() {
			if !seen[v] {
				seen[v] = true
				vs = append(vs, v)
			}
		}
	}
	sort.Slice(vs, func(i, j int) bool { return varLess(vs[i], vs[j]) })
	return vs
}
