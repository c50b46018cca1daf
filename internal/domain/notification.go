package domain

// Subscription is a user's registered push endpoint and the bearer token the
// host platform issued for it.
type Subscription struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

func (s *Subscription) Valid() bool {
	return s != nil && s.URL != "" && s.Token != ""
}

// Subscriber pairs a user id (Farcaster fid) with its subscription.
type Subscriber struct {
	FID          int64        `json:"fid"`
	Subscription Subscription `json:"details"`
}

// Message is the user-visible part of a push.
type Message struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	TargetURL string `json:"targetUrl,omitempty"`
}

type DeliveryState string

const (
	DeliverySuccess     DeliveryState = "success"
	DeliveryNoToken     DeliveryState = "no_token"
	DeliveryRateLimited DeliveryState = "rate_limited"
	DeliveryError       DeliveryState = "error"
)

// DeliveryResult is the outcome of one push to one user. Detail carries the
// diagnostic payload for DeliveryError and is empty otherwise.
type DeliveryResult struct {
	FID            int64         `json:"fid"`
	State          DeliveryState `json:"state"`
	NotificationID string        `json:"notificationId,omitempty"`
	Detail         string        `json:"detail,omitempty"`
}

// DeliveryReport aggregates a fan-out. Results holds one entry per target in
// the order targets were given.
type DeliveryReport struct {
	Results []DeliveryResult      `json:"results"`
	Counts  map[DeliveryState]int `json:"counts"`
}

func NewDeliveryReport(results []DeliveryResult) DeliveryReport {
	counts := map[DeliveryState]int{}
	for _, r := range results {
		counts[r.State]++
	}
	return DeliveryReport{Results: results, Counts: counts}
}
