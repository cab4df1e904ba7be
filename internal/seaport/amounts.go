package seaport

import "github.com/holiman/uint256"

type fraction struct {
	num uint64
	den uint64
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func (f fraction) reduced() fraction {
	if f.den == 0 {
		return f
	}
	g := gcd(f.num, f.den)
	if g <= 1 {
		return f
	}
	return fraction{num: f.num / g, den: f.den / g}
}

type window struct {
	start   uint64
	end     uint64
	current uint64
}

// deriveAmount 在时间窗口内线性插值 start→end，再按成交比例缩放。
// offer 向下取整，consideration 向上取整，保证挂单方不吃亏。
func deriveAmount(start, end *uint256.Int, fill fraction, w window, roundUp bool) *uint256.Int {
	startAmount := valueOrZero(start)
	endAmount := valueOrZero(end)

	var amount *uint256.Int
	if startAmount.Eq(endAmount) || w.end <= w.start {
		amount = startAmount.Clone()
	} else {
		duration := uint256.NewInt(w.end - w.start)
		elapsed := uint256.NewInt(w.current - w.start)
		remaining := new(uint256.Int).Sub(duration, elapsed)

		total := new(uint256.Int).Mul(startAmount, remaining)
		total.Add(total, new(uint256.Int).Mul(endAmount, elapsed))
		amount = divide(total, duration, roundUp)
	}

	if fill.den == 0 || fill.num == fill.den {
		return amount
	}
	scaled := new(uint256.Int).Mul(amount, uint256.NewInt(fill.num))
	return divide(scaled, uint256.NewInt(fill.den), roundUp)
}

func divide(x, y *uint256.Int, roundUp bool) *uint256.Int {
	quotient, remainder := new(uint256.Int), new(uint256.Int)
	quotient.DivMod(x, y, remainder)
	if roundUp && !remainder.IsZero() {
		quotient.AddUint64(quotient, 1)
	}
	return quotient
}

// accumulate 将请求比例叠加到已成交比例 filled 上，超出 1 的部分截断。
// 通分后的分母超出 uint64 时按三者的最大公约数约分，仍然放不下则返回 ErrBadFraction。
func accumulate(filled, requested fraction) (fill, total fraction, err error) {
	already := uint256.NewInt(filled.num)
	want := uint256.NewInt(requested.num)
	den := uint256.NewInt(filled.den)
	if filled.den != requested.den {
		already.Mul(already, uint256.NewInt(requested.den))
		want.Mul(want, uint256.NewInt(filled.den))
		den.Mul(den, uint256.NewInt(requested.den))
	}

	sum := new(uint256.Int).Add(already, want)
	if sum.Gt(den) {
		want.Sub(den, already)
		sum.Set(den)
	}

	if !den.IsUint64() {
		g := gcd256(gcd256(already, want), den)
		want.Div(want, g)
		sum.Div(sum, g)
		den.Div(den, g)
		if !den.IsUint64() {
			return fraction{}, fraction{}, ErrBadFraction
		}
	}

	fill = fraction{num: want.Uint64(), den: den.Uint64()}.reduced()
	total = fraction{num: sum.Uint64(), den: den.Uint64()}.reduced()
	return fill, total, nil
}

func gcd256(a, b *uint256.Int) *uint256.Int {
	x, y := a.Clone(), b.Clone()
	for !y.IsZero() {
		x, y = y, new(uint256.Int).Mod(x, y)
	}
	return x
}
