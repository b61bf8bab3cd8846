package sat

import (
	"math/big"

	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// word is an unsigned integer encoded as circuit literals, least
// significant bit first.
type word []z.Lit

// builder bit-blasts unsigned arithmetic into a logic.C. Sums and products
// widen their result so that no operation overflows.
type builder struct {
	c *logic.C
}

func (b builder) input(w int) word {
	x := make(word, w)
	for i := range x {
		x[i] = b.c.Lit()
	}
	return x
}

func (b builder) constant(k *big.Int) word {
	x := make(word, k.BitLen())
	for i := range x {
		if k.Bit(i) == 1 {
			x[i] = b.c.T
		} else {
			x[i] = b.c.F
		}
	}
	return x
}

func (b builder) bit(x word, i int) z.Lit {
	if i < len(x) {
		return x[i]
	}
	return b.c.F
}

func (b builder) add(x, y word) word {
	w := max(len(x), len(y))
	sum := make(word, 0, w+1)
	carry := b.c.F
	for i := 0; i < w; i++ {
		xi, yi := b.bit(x, i), b.bit(y, i)
		h := b.c.Xor(xi, yi)
		sum = append(sum, b.c.Xor(h, carry))
		carry = b.c.Or(b.c.And(xi, yi), b.c.And(carry, h))
	}
	if carry != b.c.F {
		sum = append(sum, carry)
	}
	return sum
}

func (b builder) sum(xs []word) word {
	var acc word
	for _, x := range xs {
		acc = b.add(acc, x)
	}
	return acc
}

// mulConst returns k*x by shift and add.
func (b builder) mulConst(x word, k uint64) word {
	var acc word
	for shift := 0; k != 0; shift, k = shift+1, k>>1 {
		if k&1 == 0 {
			continue
		}
		shifted := make(word, shift, shift+len(x))
		for i := range shifted {
			shifted[i] = b.c.F
		}
		acc = b.add(acc, append(shifted, x...))
	}
	return acc
}

// ge returns a literal that is true iff x >= y.
func (b builder) ge(x, y word) z.Lit {
	w := max(len(x), len(y))
	res := b.c.T
	for i := 0; i < w; i++ {
		xi, yi := b.bit(x, i), b.bit(y, i)
		gt := b.c.And(xi, yi.Not())
		same := b.c.Xor(xi, yi).Not()
		res = b.c.Or(gt, b.c.And(same, res))
	}
	return res
}

func (b builder) eq(x, y word) z.Lit {
	w := max(len(x), len(y))
	lits := make([]z.Lit, w)
	for i := range lits {
		lits[i] = b.c.Xor(b.bit(x, i), b.bit(y, i)).Not()
	}
	return b.c.Ands(lits...)
}
