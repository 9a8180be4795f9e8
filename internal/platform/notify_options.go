package platform

// Options configures how a notification is displayed on the host
// platform. Not every platform honors every field.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification
	// center should display alongside the notification.
	IconPath string

	// TimeoutMS overrides how long the notification stays visible, in
	// milliseconds. Zero leaves the platform default in place.
	TimeoutMS int
}
