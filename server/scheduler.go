package server

import "time"

// Accumulator 把不均匀的墙钟间隔换算成整数个固定步
// 用整数纳秒累加，保证总步数恰为 floor(总时长/步长)
type Accumulator struct {
	step time.Duration
	acc  time.Duration
}

func NewAccumulator(step time.Duration) *Accumulator {
	return &Accumulator{step: step}
}

// Add 累加一段墙钟耗时，返回本次应执行的步数；不足一步的余量保留到下次
// 卡顿之后会一次补足多步，而不是走一个超长步
func (a *Accumulator) Add(elapsed time.Duration) int {
	if elapsed > 0 {
		a.acc += elapsed
	}
	n := 0
	for a.acc >= a.step {
		a.acc -= a.step
		n++
	}
	return n
}

// Pending 尚未消耗的余量
func (a *Accumulator) Pending() time.Duration { return a.acc }

func (a *Accumulator) Step() time.Duration { return a.step }
