package router

// GuardState 为重入保护的状态。
type GuardState uint8

const (
	GuardClear GuardState = iota
	GuardHeld
)

func (s GuardState) String() string {
	switch s {
	case GuardClear:
		return "CLEAR"
	case GuardHeld:
		return "HELD"
	default:
		return "UNKNOWN"
	}
}

// Guard 是两态重入锁。只在单次调用的调用栈内使用，不需要同步。
type Guard struct {
	state GuardState
}

// State 返回当前状态。
func (g *Guard) State() GuardState { return g.state }

// CheckClear 只检查不获取。
func (g *Guard) CheckClear() error {
	if g.state != GuardClear {
		return ErrReentrancy
	}
	return nil
}

// Enter 获取 guard 后执行 fn，无论 fn 返回错误还是 panic 都会恢复为 CLEAR。
func (g *Guard) Enter(fn func() error) error {
	if err := g.CheckClear(); err != nil {
		return err
	}
	g.state = GuardHeld
	defer func() { g.state = GuardClear }()

	return fn()
}
