package fcm

import (
	"context"
	"encoding/base64"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// Notifier publishes to Firebase Cloud Messaging topics. Subscribers follow a
// tracker by subscribing to "<trackerID>_<topic>".
type Notifier struct {
	app *firebase.App
}

// New builds a notifier from a base64-encoded service account JSON key.
func New(ctx context.Context, encodedServiceAccount string) (*Notifier, error) {
	key, err := base64.StdEncoding.DecodeString(encodedServiceAccount)
	if err != nil {
		return nil, errors.Wrap(err, "decode service account")
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON(key))
	if err != nil {
		return nil, errors.Wrap(err, "init firebase app")
	}

	return &Notifier{app: app}, nil
}

func (n *Notifier) Send(ctx context.Context, trackerID, topic string, params map[string]string) error {
	client, err := n.app.Messaging(ctx)
	if err != nil {
		return errors.Wrap(err, "firebase messaging client")
	}

	msg := &messaging.Message{
		Topic: trackerID + "_" + topic,
		Notification: &messaging.Notification{
			Title: params["title"],
			Body:  params["content"],
		},
		Data: params,
	}

	if _, err := client.Send(ctx, msg); err != nil {
		return errors.Wrap(err, "fcm send")
	}
	return nil
}
