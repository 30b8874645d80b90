package records

import "time"

//go:generate mockgen -destination=mocks/mock_time_provider.go -package=mocks github.com/KirkDiggler/dnd-narrator/internal/repositories/records TimeProvider

type TimeProvider interface {
	Now() time.Time
}

type realTime struct{}

// RealTime returns a TimeProvider backed by the wall clock
func RealTime() TimeProvider {
	return realTime{}
}

func (realTime) Now() time.Time {
	return time.Now()
}
