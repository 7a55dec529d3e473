// Package validation provides explicit validators for the blog entities.
// Each validator returns the cleaned value together with the collected
// field errors instead of relying on struct tags.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bcnelson/yatube/internal/domain"
)

const (
	maxTitleLength   = 200
	maxSlugLength    = 200
	maxKeyNameLength = 100
)

// MaxUsernameLength is the longest username accepted.
const MaxUsernameLength = 150

// isAlpha returns true if the byte is an ASCII letter.
func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// isNum returns true if the byte is an ASCII digit.
func isNum(b byte) bool {
	return b >= '0' && b <= '9'
}

// isAlphaNum returns true if the byte is an ASCII letter or digit.
func isAlphaNum(b byte) bool {
	return isAlpha(b) || isNum(b)
}

// PostFields is a validated post input.
type PostFields struct {
	Text    string
	GroupID *int64
}

// ValidatePost checks the author input shared by create and edit.
// Text is trimmed and must not be empty. Group is optional; when present it
// must be a positive integer id. Whether that id resolves to an existing
// group is checked by the caller, which owns the store.
func ValidatePost(in domain.PostInput) (*PostFields, ValidationErrors) {
	var errs ValidationErrors
	fields := &PostFields{Text: strings.TrimSpace(in.Text)}

	if fields.Text == "" {
		errs.Add("text", in.Text, "text must not be empty")
	}

	if raw := strings.TrimSpace(in.Group); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			errs.Add("group", in.Group, "select a valid group")
		} else {
			fields.GroupID = &id
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return fields, nil
}

// ValidateSlug validates a group slug.
// Slugs contain only lowercase letters, numbers, hyphens or underscores.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug must not be empty")
	}
	if len(slug) > maxSlugLength {
		return fmt.Errorf("slug must be at most %d characters", maxSlugLength)
	}
	for _, b := range []byte(slug) {
		if !(b >= 'a' && b <= 'z') && !isNum(b) && b != '-' && b != '_' {
			return fmt.Errorf("slug can only contain lowercase letters, numbers, hyphens or underscores")
		}
	}
	return nil
}

// ValidateTitle validates a group title.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return fmt.Errorf("title must be at most %d characters", maxTitleLength)
	}
	return nil
}

// ValidateUsername validates a username.
// Usernames are 1-150 characters of letters, digits and @.+-_
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}
	if len(username) > MaxUsernameLength {
		return fmt.Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	for _, b := range []byte(username) {
		if !isAlphaNum(b) && !strings.ContainsRune("@.+-_", rune(b)) {
			return fmt.Errorf("username can only contain letters, numbers and @/./+/-/_")
		}
	}
	return nil
}

// ValidateEmail validates an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email must not be empty")
	}
	atIndex := strings.Index(email, "@")
	if atIndex < 1 {
		return fmt.Errorf("email must contain '@' after at least one character")
	}
	if atIndex == len(email)-1 {
		return fmt.Errorf("email must have domain after '@'")
	}
	return nil
}

// ValidateGroup validates a group creation request.
func ValidateGroup(req *domain.CreateGroupRequest) ValidationErrors {
	var errs ValidationErrors
	if err := ValidateTitle(req.Title); err != nil {
		errs.Add("title", req.Title, err.Error())
	}
	if err := ValidateSlug(req.Slug); err != nil {
		errs.Add("slug", req.Slug, err.Error())
	}
	return errs
}

// ValidateUser validates a user creation request.
func ValidateUser(req *domain.CreateUserRequest) ValidationErrors {
	var errs ValidationErrors
	if err := ValidateUsername(req.Username); err != nil {
		errs.Add("username", req.Username, err.Error())
	}
	if req.Email != "" {
		if err := ValidateEmail(req.Email); err != nil {
			errs.Add("email", req.Email, err.Error())
		}
	}
	if req.Password != "" && len(req.Password) < 8 {
		errs.Add("password", "", "password must be at least 8 characters")
	}
	return errs
}

// ValidateAPIKeyName trims an API key name and checks its length.
func ValidateAPIKeyName(name string) (string, ValidationErrors) {
	var errs ValidationErrors
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		errs.Add("name", name, "name is required")
	case utf8.RuneCountInString(name) > maxKeyNameLength:
		errs.Add("name", name, fmt.Sprintf("name must be at most %d characters", maxKeyNameLength))
	}
	return name, errs
}

// UsernameFromEmail derives a username candidate from the local part of an
// email address, dropping characters a username cannot hold.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, c := range []byte(local) {
		if isAlphaNum(c) || strings.ContainsRune(".+-_", rune(c)) {
			b.WriteByte(c)
		}
	}
	name := b.String()
	if len(name) > MaxUsernameLength {
		name = name[:MaxUsernameLength]
	}
	return name
}
