package domain

// Delivery is the outcome of sending one message to one recipient.
type Delivery struct {
	Recipient SubscriberID
	Err       error
}

func (d Delivery) OK() bool { return d.Err == nil }
