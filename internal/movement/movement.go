// Package movement computes where a dice roll takes a player. Shortcuts are not applied here:
// whether a ladder or snake is taken depends on the trivia answer that follows the roll.
package movement

const (
	MinDice = 1
	MaxDice = 6
)

// ComputeMove returns the landing square for a roll. A roll that overshoots maxBox bounces
// back by the overshoot. On boards smaller than a die the bounce could pass the start, so the
// result is clamped to 0.
func ComputeMove(current, dice, maxBox int) int {
	target := current + dice
	if target > maxBox {
		target = maxBox - (target - maxBox)
	}

	return max(target, 0)
}

// TracePath lists the squares visited one step at a time, for animating a roll. It walks
// forward until maxBox and backward after that, and always ends on ComputeMove's result.
func TracePath(before, dice, maxBox int) []int {
	steps := make([]int, 0, max(dice, 0))

	pos, backward := before, false
	for range dice {
		if pos >= maxBox {
			backward = true
		}

		if backward {
			pos = max(pos-1, 0)
		} else {
			pos++
		}

		steps = append(steps, pos)
	}

	return steps
}

// ValidDice reports whether n is a face of a six-sided die.
func ValidDice(n int) bool {
	return n >= MinDice && n <= MaxDice
}
