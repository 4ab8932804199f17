package soil

// ActiveNodes returns the number of nodes to include in the column solution
// while searching for the surface temperature. The window reaches four
// nodes past the shallowest freezing front (a thawed node over a frozen
// one) above the fourth node from the bottom. Without a front it covers the
// whole column when the surface is frozen over thawed soil and the top
// three nodes otherwise. The result never exceeds len(t).
func ActiveNodes(t []float64) int {
	n := len(t)
	front := 0
	for i := n - 5; i >= 0; i-- {
		if t[i] >= 0 && t[i+1] < 0 {
			front = i + 1
		}
	}

	var active int
	switch {
	case front != 0:
		active = front + 4
	case t[0] <= 0 && t[1] >= 0:
		active = n
	default:
		active = 3
	}
	if active > n {
		active = n
	}
	if active < 2 {
		active = 2
	}
	return active
}
