package push

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Credentials holds the VAPID keypair used to sign every push request.
type Credentials struct {
	PublicKey  string
	PrivateKey string
	// Subscriber is the e-mail contact advertised to push services, without the mailto: scheme.
	Subscriber string
}

// Configured reports whether a signing key is available.
func (c Credentials) Configured() bool {
	return c.PrivateKey != ""
}

type CredentialsConfig struct {
	PublicKey      string
	PrivateKey     string
	PublicKeyFile  string
	PrivateKeyFile string
	Subscriber     string
}

// LoadCredentials resolves the VAPID keys, inline values taking precedence over key files.
// Missing keys are not an error here: fan-out passes refuse to run without a private key.
func LoadCredentials(fs afero.Fs, config CredentialsConfig) (Credentials, error) {
	publicKey, err := resolveKey(fs, config.PublicKey, config.PublicKeyFile)
	if err != nil {
		return Credentials{}, errors.Wrap(err, "could not load the VAPID public key")
	}

	privateKey, err := resolveKey(fs, config.PrivateKey, config.PrivateKeyFile)
	if err != nil {
		return Credentials{}, errors.Wrap(err, "could not load the VAPID private key")
	}

	subscriber, err := normalizeSubscriber(config.Subscriber)
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		Subscriber: subscriber,
	}, nil
}

const mailtoScheme = "mailto:"

// normalizeSubscriber accepts an e-mail address with or without the mailto: scheme and
// returns the bare address. webpush-go writes the JWT sub claim as "mailto:" + subscriber,
// so URL contacts cannot be expressed.
func normalizeSubscriber(subscriber string) (string, error) {
	subscriber = subscriberAddress(subscriber)
	if strings.Contains(subscriber, "://") || strings.HasPrefix(strings.ToLower(subscriber), "https:") {
		return "", errors.Errorf("VAPID subscriber %q must be an e-mail address", subscriber)
	}

	return subscriber, nil
}

func subscriberAddress(subscriber string) string {
	subscriber = strings.TrimSpace(subscriber)
	if len(subscriber) >= len(mailtoScheme) && strings.EqualFold(subscriber[:len(mailtoScheme)], mailtoScheme) {
		return subscriber[len(mailtoScheme):]
	}

	return subscriber
}

func resolveKey(fs afero.Fs, value string, path string) (string, error) {
	if value != "" || path == "" {
		return strings.TrimSpace(value), nil
	}

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(content)), nil
}
