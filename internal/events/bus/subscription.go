package bus

import "github.com/nats-io/nats.go"

// natsSubscription adapts a *nats.Subscription to the Subscription interface
type natsSubscription struct {
	sub *nats.Subscription
}

// Unsubscribe drops the subscription on the NATS server
func (s *natsSubscription) Unsubscribe() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Unsubscribe()
}

// IsValid reports whether the subscription still delivers
func (s *natsSubscription) IsValid() bool {
	if s.sub == nil {
		return false
	}
	return s.sub.IsValid()
}
