package common

// DefaultUserID is the user credentials are stored under when a tool call
// does not name one.
const DefaultUserID = "default"

// UserIDFromArgs extracts the user id from request arguments, defaulting to
// DefaultUserID.
func UserIDFromArgs(args map[string]any) string {
	if userID, ok := args["user_id"].(string); ok && userID != "" {
		return userID
	}
	return DefaultUserID
}
