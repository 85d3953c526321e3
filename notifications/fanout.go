package notifications

import (
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/anjiri1684/tutor_connect/services"
)

// Fanout forwards every event to each of its notifiers in order.
type Fanout []services.Notifier

func (f Fanout) SessionBooked(session models.Session) {
	for _, n := range f {
		n.SessionBooked(session)
	}
}

func (f Fanout) ReviewSubmitted(review models.Review, tutor models.User) {
	for _, n := range f {
		n.ReviewSubmitted(review, tutor)
	}
}
