package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"
)

// Delivery carries everything the customer receives once a song is ready.
type Delivery struct {
	OrderID      string
	Template     string
	CustomerName string
	Email        string
	SongURL      string
	Lyrics       string
	DeliveryTime string
}

// Failure identifies an order whose delivery could not complete.
type Failure struct {
	OrderID string
	Email   string
	Reason  string
}

type Notifier interface {
	SendSong(ctx context.Context, d Delivery) error
	SendFailure(ctx context.Context, f Failure) error
}

var songEmail = template.Must(template.New("song").Parse(`Your Custom Rap Song is Ready!

Hi {{.CustomerName}},

Your {{.Template}} song has been created and is ready for download!

Download your song: {{.SongURL}}

Lyrics:
{{.Lyrics}}

Thanks for using Instant Rap Songs!
Delivered in {{.DeliveryTime}} as promised!
`))

// SongEmailBody renders the customer-facing song delivery message.
func SongEmailBody(d Delivery) (string, error) {
	var buf bytes.Buffer
	if err := songEmail.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render song email order_id=%s: %w", d.OrderID, err)
	}
	return buf.String(), nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) SendSong(ctx context.Context, d Delivery) error {
	var errs []error
	for _, n := range m {
		if err := n.SendSong(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) SendFailure(ctx context.Context, f Failure) error {
	var errs []error
	for _, n := range m {
		if err := n.SendFailure(ctx, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
