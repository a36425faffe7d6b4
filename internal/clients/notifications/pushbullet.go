package notifications

import (
	"github.com/xconstruct/go-pushbullet"

	"newsreel/internal/utils"
)

// PushbulletClient implements the Notifier interface for Pushbullet.
type PushbulletClient struct {
	pb     *pushbullet.Client
	logger utils.Log
}

func NewPushbulletClient(apiKey string, logger utils.Log) *PushbulletClient {
	return &PushbulletClient{
		pb:     pushbullet.New(apiKey),
		logger: logger,
	}
}

// sendPush sends a note to all of the user's devices.
func (c *PushbulletClient) sendPush(title, body string) error {
	// Empty device iden means all devices.
	return c.pb.PushNote("", title, body)
}

// NotifyAuthFailure alerts the operator that the upstream rejected the
// configured credentials. Until they are fixed every search fails, so
// this is the one alert worth pushing.
func (c *PushbulletClient) NotifyAuthFailure(detail string) {
	if err := c.sendPush("newsreel: authentication failed", detail); err != nil {
		c.logger.Error("Error sending Pushbullet notification:", err)
	}
}

// Test verifies the API key by looking up the account's devices.
func (c *PushbulletClient) Test() error {
	_, err := c.pb.Devices()
	return err
}
