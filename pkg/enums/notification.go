package enums

import "fmt"

// NotificationType classifies entries in the staff inbox.
type NotificationType string

const (
	NotificationTypeBookingReview  NotificationType = "booking_review"
	NotificationTypeBookingExpired NotificationType = "booking_expired"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeBookingReview,
	NotificationTypeBookingExpired,
}

func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
