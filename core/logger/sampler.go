package logger

import "sync/atomic"

// debugSampler lets through num out of every den calls. A zero ratio lets
// everything through.
type debugSampler struct {
	ratio atomic.Uint64
	calls atomic.Uint64
}

func newDebugSampler(num, den int) *debugSampler {
	s := &debugSampler{}
	s.set(num, den)
	return s
}

func (s *debugSampler) set(num, den int) {
	if num <= 0 || den <= 0 {
		num, den = 0, 0
	}
	if num > den {
		num = den
	}
	s.ratio.Store(uint64(num)<<32 | uint64(uint32(den)))
	s.calls.Store(0)
}

func (s *debugSampler) allow() bool {
	r := s.ratio.Load()
	num, den := r>>32, r&0xffffffff
	if num == 0 || den == 0 {
		return true
	}
	return (s.calls.Add(1)-1)%den < num
}
