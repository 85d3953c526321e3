package services

import "github.com/anjiri1684/tutor_connect/models"

// Notifier receives domain events after they are committed. Implementations must not block
// the caller and must swallow their own failures.
type Notifier interface {
	SessionBooked(session models.Session)
	ReviewSubmitted(review models.Review, tutor models.User)
}

type nopNotifier struct{}

func (nopNotifier) SessionBooked(models.Session)                {}
func (nopNotifier) ReviewSubmitted(models.Review, models.User) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
