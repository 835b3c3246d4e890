package survey

// PointsPolicy decides the reward for one submitted response.
type PointsPolicy struct {
	Base        int
	PerQuestion int
	Max         int
}

func (p PointsPolicy) Award(answered int) int {
	if answered < 0 {
		answered = 0
	}
	points := p.Base + p.PerQuestion*answered
	if p.Max > 0 && points > p.Max {
		points = p.Max
	}
	if points < 0 {
		return 0
	}
	return points
}
