package validation

import (
	"strings"
	"testing"

	"github.com/bcnelson/yatube/internal/domain"
)

func TestValidatePost(t *testing.T) {
	tests := []struct {
		name       string
		input      domain.PostInput
		wantFields []string
		wantGroup  int64
	}{
		{"text only", domain.PostInput{Text: "hello"}, nil, 0},
		{"text and group", domain.PostInput{Text: "hello", Group: "3"}, nil, 3},
		{"group with spaces", domain.PostInput{Text: "hello", Group: " 7 "}, nil, 7},
		{"empty text", domain.PostInput{Text: ""}, []string{"text"}, 0},
		{"whitespace text", domain.PostInput{Text: "  \n\t "}, []string{"text"}, 0},
		{"malformed group", domain.PostInput{Text: "hello", Group: "abc"}, []string{"group"}, 0},
		{"zero group", domain.PostInput{Text: "hello", Group: "0"}, []string{"group"}, 0},
		{"negative group", domain.PostInput{Text: "hello", Group: "-2"}, []string{"group"}, 0},
		{"both invalid", domain.PostInput{Text: " ", Group: "x"}, []string{"text", "group"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, errs := ValidatePost(tt.input)
			if len(tt.wantFields) == 0 {
				if errs.HasErrors() {
					t.Fatalf("ValidatePost(%+v) unexpected errors: %v", tt.input, errs)
				}
				if fields.Text != tt.input.Text {
					t.Errorf("Text = %q, want %q", fields.Text, tt.input.Text)
				}
				if tt.wantGroup == 0 && fields.GroupID != nil {
					t.Errorf("GroupID = %d, want nil", *fields.GroupID)
				}
				if tt.wantGroup != 0 && (fields.GroupID == nil || *fields.GroupID != tt.wantGroup) {
					t.Errorf("GroupID = %v, want %d", fields.GroupID, tt.wantGroup)
				}
				return
			}
			if fields != nil {
				t.Errorf("ValidatePost(%+v) returned fields with errors", tt.input)
			}
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("got %d errors, want %d: %v", len(errs), len(tt.wantFields), errs)
			}
			for i, f := range tt.wantFields {
				if errs[i].Field != f {
					t.Errorf("error %d field = %q, want %q", i, errs[i].Field, f)
				}
			}
		})
	}
}

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		name    string
		slug    string
		wantErr bool
	}{
		{"simple", "cats", false},
		{"with hyphen", "cat-lovers", false},
		{"with underscore", "cat_lovers", false},
		{"with digits", "team42", false},
		{"empty", "", true},
		{"uppercase", "Cats", true},
		{"space", "cat lovers", true},
		{"slash", "cats/dogs", true},
		{"unicode", "коты", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSlug(%q) error = %v, wantErr %v", tt.slug, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"simple", "leo", false},
		{"django charset", "leo.t+blog-1_x@home", false},
		{"empty", "", true},
		{"space", "leo t", true},
		{"slash", "leo/t", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidateGroup(t *testing.T) {
	errs := ValidateGroup(&domain.CreateGroupRequest{Title: "", Slug: "Bad Slug"})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	byField := errs.ByField()
	if len(byField["title"]) != 1 || len(byField["slug"]) != 1 {
		t.Errorf("unexpected grouping: %v", byField)
	}

	if errs := ValidateGroup(&domain.CreateGroupRequest{Title: "Cats", Slug: "cats"}); errs.HasErrors() {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestValidateUser(t *testing.T) {
	errs := ValidateUser(&domain.CreateUserRequest{Username: "leo", Email: "nope", Password: "short"})
	if got := errs.ForField("email"); len(got) != 1 {
		t.Errorf("expected email error, got %v", errs)
	}
	if got := errs.ForField("password"); len(got) != 1 {
		t.Errorf("expected password error, got %v", errs)
	}
	if got := errs.ForField("username"); len(got) != 0 {
		t.Errorf("unexpected username error: %v", got)
	}
}

func TestValidateAPIKeyName(t *testing.T) {
	name, errs := ValidateAPIKeyName("  deploy bot ")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if name != "deploy bot" {
		t.Errorf("name = %q, want %q", name, "deploy bot")
	}

	if _, errs := ValidateAPIKeyName("   "); len(errs.ForField("name")) != 1 {
		t.Errorf("expected name error for blank name, got %v", errs)
	}
	if _, errs := ValidateAPIKeyName(strings.Repeat("k", 101)); len(errs.ForField("name")) != 1 {
		t.Errorf("expected name error for long name, got %v", errs)
	}
}

func TestUsernameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"leo@example.com", "leo"},
		{"leo.tolstoy+blog@example.com", "leo.tolstoy+blog"},
		{"le o!@example.com", "leo"},
		{"noat", "noat"},
	}
	for _, tt := range tests {
		if got := UsernameFromEmail(tt.email); got != tt.want {
			t.Errorf("UsernameFromEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestValidationErrorsError(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "" {
		t.Errorf("empty errors should render empty string")
	}
	errs.Add("text", "", "text must not be empty")
	if errs.Error() != "text: text must not be empty" {
		t.Errorf("unexpected message %q", errs.Error())
	}
	errs.Add("group", "x", "select a valid group")
	if errs.Error() != "text: text must not be empty (and 1 more errors)" {
		t.Errorf("unexpected message %q", errs.Error())
	}
}
