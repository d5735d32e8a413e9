package domain

// Profile is the denormalized identity a client authenticates and sends with.
// Nickname and Status come from the directory at sign-in time; the relay
// never resolves them for regular messages.
type Profile struct {
	ID       MemberID
	Nickname string
	Status   string
}
