package enums

// NotificationType maps to the notification_type_enum in Postgres.
type NotificationType string

const (
	NotificationTypeOrder  NotificationType = "order"
	NotificationTypeSystem NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrder,
	NotificationTypeSystem,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	return isOneOf(n, validNotificationTypes)
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	return parseEnum(value, "notification type", validNotificationTypes)
}
