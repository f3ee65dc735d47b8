package domain

// Member is the directory record for a family member.
// Registration happens elsewhere; the hub upserts it on join so
// location listings can show usernames.
type Member struct {
	UserID   UserID   `json:"userId"`
	Username string   `json:"username"`
	FamilyID FamilyID `json:"familyId"`
}

// NewMember falls back to the user id when no username is known.
func NewMember(id Identity, username string) (Member, error) {
	if len(username) > MaxUsernameLen {
		return Member{}, ErrUsernameTooLong
	}
	if username == "" {
		username = string(id.UserID)
	}
	return Member{UserID: id.UserID, Username: username, FamilyID: id.FamilyID}, nil
}
