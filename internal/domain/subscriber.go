package domain

// SubscriberID is the Telegram user id of a subscriber.
type SubscriberID int64

func (id SubscriberID) Validate() error {
	if id == 0 {
		return ErrInvalidSubscriber
	}
	return nil
}
