package notification

import (
	"context"
	"fmt"
	"time"

	"capturemoments/models"

	"firebase.google.com/go/v4/messaging"
)

// Pusher sends one FCM message; *messaging.Client satisfies it.
type Pusher interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

func ProviderTopic(providerID string) string { return "provider_" + providerID }
func ClientTopic(clientID string) string     { return "client_" + clientID }

// Deliver pushes a lifecycle event to both the provider and the client
// topics. Both sends are attempted; the first error is returned.
func Deliver(ctx context.Context, pusher Pusher, ev models.BookingEvent) error {
	data := map[string]string{
		"type":      "booking_event",
		"bookingId": ev.BookingID,
		"status":    string(ev.Status),
	}

	var first error
	for _, target := range []struct{ role, topic string }{
		{"provider", ProviderTopic(ev.ProviderID)},
		{"client", ClientTopic(ev.ClientID)},
	} {
		title, body := eventText(ev.Status, target.role)
		msg := topicMessage(target.topic, title, body, withRole(data, target.role))
		if _, err := pusher.Send(ctx, msg); err != nil && first == nil {
			first = fmt.Errorf("push %s event for booking %s to %s: %w", ev.Status, ev.BookingID, target.topic, err)
		}
	}
	return first
}

// Remind pushes the pre-session reminder to both parties.
func Remind(ctx context.Context, pusher Pusher, b models.Booking) error {
	when := b.Interval.Start.UTC().Format(time.RFC1123)
	data := map[string]string{"type": "booking_reminder", "bookingId": b.ID}

	if _, err := pusher.Send(ctx, topicMessage(ProviderTopic(b.ProviderID),
		"Upcoming shoot", "You have a session starting "+when+".", withRole(data, "provider"))); err != nil {
		return fmt.Errorf("remind provider for booking %s: %w", b.ID, err)
	}
	if _, err := pusher.Send(ctx, topicMessage(ClientTopic(b.ClientID),
		"Your shoot is coming up", "Your photographer is booked for "+when+".", withRole(data, "client"))); err != nil {
		return fmt.Errorf("remind client for booking %s: %w", b.ID, err)
	}
	return nil
}

func eventText(status models.BookingStatus, role string) (string, string) {
	switch status {
	case models.StatusPending:
		if role == "provider" {
			return "New booking request", "A client has requested one of your slots."
		}
		return "Booking requested", "We are holding your slot while you complete payment."
	case models.StatusConfirmed:
		return "Booking confirmed", "The session is confirmed."
	case models.StatusCancelled:
		return "Booking cancelled", "The session was cancelled and the slot released."
	case models.StatusCompleted:
		if role == "client" {
			return "How did it go?", "Leave feedback for your photographer."
		}
		return "Session completed", "The session has been marked complete."
	}
	return "Booking updated", "Your booking status is " + string(status) + "."
}

func withRole(data map[string]string, role string) map[string]string {
	out := make(map[string]string, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["role"] = role
	return out
}

func topicMessage(topic, title, body string, data map[string]string) *messaging.Message {
	return &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}
