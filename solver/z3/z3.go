// Package z3 implements solver.Solver on top of the Z3 C API.
package z3

import (
	/*
		#cgo LDFLAGS: -lz3
		#include <stdlib.h>
		#include <z3.h>
	*/
	"C"
)
import (
	"context"
	"unsafe"

	"github.com/ajalab/tse/formula"
	"github.com/ajalab/tse/log"
	"github.com/ajalab/tse/solver"
	"github.com/pkg/errors"
)

const logic = "QF_LIA"

var _ solver.Solver = (*Solver)(nil)

// Solver holds a Z3 context and one incremental Z3 solver living in it.
type Solver struct {
	ctx     C.Z3_context
	s       C.Z3_solver
	model   C.Z3_model
	intSort C.Z3_sort
	vars    map[formula.Var]C.Z3_ast
}

func z3MkStringSymbol(ctx C.Z3_context, s string) C.Z3_symbol {
	c := C.CString(s)
	defer C.free(unsafe.Pointer(c))
	return C.Z3_mk_string_symbol(ctx, c)
}

// New returns a new Z3-backed solver for quantifier-free linear integer
// arithmetic.
func New() (*Solver, error) {
	cfg := C.Z3_mk_config()
	defer C.Z3_del_config(cfg)

	ctx := C.Z3_mk_context(cfg)
	// Errors are polled with Z3_get_error_code after each call.
	C.Z3_set_error_handler(ctx, nil)

	s := &Solver{
		ctx:  ctx,
		vars: make(map[formula.Var]C.Z3_ast),
	}
	s.intSort = C.Z3_mk_int_sort(ctx)
	s.s = C.Z3_mk_solver_for_logic(ctx, z3MkStringSymbol(ctx, logic))
	if err := s.err("Z3_mk_solver_for_logic"); err != nil {
		C.Z3_del_context(ctx)
		return nil, err
	}
	C.Z3_solver_inc_ref(ctx, s.s)
	return s, nil
}

// Factory adapts New to solver.Factory.
func Factory() (solver.Solver, error) {
	return New()
}

// Close releases the model, the solver and the Z3 context.
func (s *Solver) Close() error {
	if s.ctx == nil {
		return nil
	}
	s.dropModel()
	C.Z3_solver_dec_ref(s.ctx, s.s)
	C.Z3_del_context(s.ctx)
	s.ctx = nil
	return nil
}

func (s *Solver) err(op string) error {
	code := C.Z3_get_error_code(s.ctx)
	if code == C.Z3_OK {
		return nil
	}
	return errors.Errorf("%s: %s", op, C.GoString(C.Z3_get_error_msg(s.ctx, code)))
}

func (s *Solver) dropModel() {
	if s.model != nil {
		C.Z3_model_dec_ref(s.ctx, s.model)
		s.model = nil
	}
}

func (s *Solver) variable(v formula.Var) C.Z3_ast {
	if ast, ok := s.vars[v]; ok {
		return ast
	}
	ast := C.Z3_mk_const(s.ctx, z3MkStringSymbol(s.ctx, string(v)), s.intSort)
	s.vars[v] = ast
	// Variables range over the naturals.
	zero := C.Z3_mk_int64(s.ctx, 0, s.intSort)
	C.Z3_solver_assert(s.ctx, s.s, C.Z3_mk_ge(s.ctx, ast, zero))
	return ast
}

func (s *Solver) linear(l formula.Linear) C.Z3_ast {
	l = l.Normalize()
	args := make([]C.Z3_ast, 0, len(l.Terms)+1)
	for _, t := range l.Terms {
		x := s.variable(t.Var)
		if t.Coef == 1 {
			args = append(args, x)
			continue
		}
		factors := []C.Z3_ast{C.Z3_mk_int64(s.ctx, C.int64_t(t.Coef), s.intSort), x}
		args = append(args, C.Z3_mk_mul(s.ctx, 2, &factors[0]))
	}
	if l.Const != 0 || len(args) == 0 {
		args = append(args, C.Z3_mk_int64(s.ctx, C.int64_t(l.Const), s.intSort))
	}
	if len(args) == 1 {
		return args[0]
	}
	return C.Z3_mk_add(s.ctx, C.uint(len(args)), &args[0])
}

func (s *Solver) constraint(c formula.Constraint) (C.Z3_ast, error) {
	l := s.linear(c.Left)
	r := s.linear(c.Right)
	switch c.Op {
	case formula.Ge:
		return C.Z3_mk_ge(s.ctx, l, r), nil
	case formula.Gt:
		return C.Z3_mk_gt(s.ctx, l, r), nil
	case formula.Eq:
		return C.Z3_mk_eq(s.ctx, l, r), nil
	}
	return nil, errors.Errorf("unsupported operator %v", c.Op)
}

// Assert adds constraints to the Z3 solver.
func (s *Solver) Assert(cs ...formula.Constraint) error {
	for _, c := range cs {
		ast, err := s.constraint(c)
		if err != nil {
			return errors.Wrapf(err, "failed to assert %v", c)
		}
		C.Z3_solver_assert(s.ctx, s.s, ast)
		if err := s.err("Z3_solver_assert"); err != nil {
			return errors.Wrapf(err, "failed to assert %v", c)
		}
		log.Debug.Printf("z3: assert %v", c)
	}
	return nil
}

// Check runs Z3 on the asserted constraints. Z3 is interrupted when ctx is
// canceled.
func (s *Solver) Check(ctx context.Context) (solver.Status, error) {
	if err := ctx.Err(); err != nil {
		return solver.Unknown, err
	}
	s.dropModel()

	stop := context.AfterFunc(ctx, func() {
		C.Z3_interrupt(s.ctx)
	})
	result := C.Z3_solver_check(s.ctx, s.s)
	stop()

	switch result {
	case C.Z3_L_FALSE:
		return solver.Unsat, nil
	case C.Z3_L_TRUE:
		m := C.Z3_solver_get_model(s.ctx, s.s)
		if err := s.err("Z3_solver_get_model"); err != nil {
			return solver.Unknown, err
		}
		C.Z3_model_inc_ref(s.ctx, m)
		s.model = m
		log.Debug.Printf("z3: model\n%s", C.GoString(C.Z3_model_to_string(s.ctx, m)))
		return solver.Sat, nil
	}
	if err := ctx.Err(); err != nil {
		return solver.Unknown, err
	}
	reason := C.GoString(C.Z3_solver_get_reason_unknown(s.ctx, s.s))
	log.Debug.Printf("z3: unknown (%s)\n%s", reason, C.GoString(C.Z3_solver_to_string(s.ctx, s.s)))
	return solver.Unknown, nil
}

// Eval evaluates l in the current model, completing the model for
// variables Z3 left unassigned.
func (s *Solver) Eval(l formula.Linear) (uint64, error) {
	if s.model == nil {
		return 0, errors.New("no model available")
	}
	var result C.Z3_ast
	ok := C.Z3_model_eval(s.ctx, s.model, s.linear(l), C.bool(true), &result)
	if !bool(ok) {
		return 0, errors.Errorf("failed to evaluate %v in the model", l)
	}
	var u C.uint64_t
	if ok := bool(C.Z3_get_numeral_uint64(s.ctx, result, &u)); !ok {
		return 0, errors.Errorf("Z3_get_numeral_uint64: %s is not a uint64", C.GoString(C.Z3_ast_to_string(s.ctx, result)))
	}
	return uint64(u), nil
}
