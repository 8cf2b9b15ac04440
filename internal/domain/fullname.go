package domain

// ComposeFullName builds the display name seeded at creation from the
// contact data presented by the chat transport. When no name is known at
// all, the client is addressed by card number.
func ComposeFullName(firstName, lastName, cardNumber string) string {
	switch {
	case lastName != "" && firstName != "":
		return lastName + " " + firstName
	case firstName != "":
		return firstName
	default:
		return "Клиент " + cardNumber
	}
}
