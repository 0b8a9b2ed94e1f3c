package push

import (
	"context"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/pkg/errors"
)

const (
	DefaultTimeout = 10 * time.Second
	defaultTTL     = 60 * 60
)

var ErrMissingCredentials = errors.New("no VAPID private key configured")

// Keys are the subscriber-side encryption credentials of a push subscription.
type Keys struct {
	P256dh string `json:"p256dh" mapstructure:"p256dh"`
	Auth   string `json:"auth" mapstructure:"auth"`
}

type Target struct {
	Endpoint string
	Keys     Keys
}

// Sender delivers one encrypted payload to one subscriber endpoint.
type Sender interface {
	Send(ctx context.Context, target Target, payload []byte) Result
}

type Client struct {
	credentials Credentials
	timeout     time.Duration
	ttl         int
	httpClient  webpush.HTTPClient
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient webpush.HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTTL(ttl int) ClientOption {
	return func(c *Client) {
		c.ttl = ttl
	}
}

func NewClient(credentials Credentials, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &Client{
		credentials: credentials,
		timeout:     timeout,
		ttl:         defaultTTL,
		httpClient:  &http.Client{},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Send never returns an error on its own: every failure is folded into a TransientFailure
// result, and a delivery that does not complete within the client timeout is one of them.
func (c *Client) Send(ctx context.Context, target Target, payload []byte) Result {
	if !c.credentials.Configured() {
		return transientFailure(ErrMissingCredentials)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	subscription := &webpush.Subscription{
		Endpoint: target.Endpoint,
		Keys: webpush.Keys{
			P256dh: target.Keys.P256dh,
			Auth:   target.Keys.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, subscription, &webpush.Options{
		HTTPClient:      c.httpClient,
		Subscriber:      subscriberAddress(c.credentials.Subscriber),
		VAPIDPublicKey:  c.credentials.PublicKey,
		VAPIDPrivateKey: c.credentials.PrivateKey,
		TTL:             c.ttl,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return transientFailure(errors.Wrap(err, "could not send the push notification"))
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))

	return classifyStatus(resp.StatusCode)
}

// GenerateCredentials creates a fresh VAPID keypair.
func GenerateCredentials(subscriber string) (Credentials, error) {
	subscriber, err := normalizeSubscriber(subscriber)
	if err != nil {
		return Credentials{}, err
	}

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return Credentials{}, errors.Wrap(err, "could not generate VAPID keys")
	}

	return Credentials{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		Subscriber: subscriber,
	}, nil
}
