package content

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recordingSubmitter struct {
	calls []CommentInput
	err   error
}

func (r *recordingSubmitter) SubmitComment(_ context.Context, in CommentInput) error {
	r.calls = append(r.calls, in)
	return r.err
}

func validInput() CommentInput {
	return CommentInput{PostID: "post-1", Name: "Ada", Email: "ada@example.com", Comment: "Nice post"}
}

func TestValidateReportsExactlyEmptyFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CommentInput)
		want   []string
	}{
		{"all present", func(*CommentInput) {}, nil},
		{"name empty", func(in *CommentInput) { in.Name = "" }, []string{"name"}},
		{"email empty", func(in *CommentInput) { in.Email = "" }, []string{"email"}},
		{"comment blank", func(in *CommentInput) { in.Comment = "   " }, []string{"comment"}},
		{"name and comment", func(in *CommentInput) { in.Name, in.Comment = "", "" }, []string{"name", "comment"}},
		{"all empty", func(in *CommentInput) { in.Name, in.Email, in.Comment = "", "", "" }, []string{"name", "email", "comment"}},
	}
	for _, tt := range tests {
		in := validInput()
		tt.mutate(&in)
		form := NewCommentForm(in)
		ok := form.Validate()
		if ok != (len(tt.want) == 0) {
			t.Errorf("%s: Validate() = %v", tt.name, ok)
		}
		if len(form.Errors) != len(tt.want) {
			t.Errorf("%s: errors = %v, want fields %v", tt.name, form.Errors, tt.want)
			continue
		}
		for _, field := range tt.want {
			if _, ok := form.Errors[field]; !ok {
				t.Errorf("%s: missing error for %q in %v", tt.name, field, form.Errors)
			}
		}
	}
}

func TestValidateMessages(t *testing.T) {
	errs := CommentInput{PostID: "p"}.Validate()
	want := map[string]string{
		"name":    "The Name Field is required",
		"email":   "The Email Field is required",
		"comment": "The Comment Field is required",
	}
	for field, msg := range want {
		if errs[field] != msg {
			t.Errorf("errs[%q] = %q, want %q", field, errs[field], msg)
		}
	}
}

func TestValidateMaxLength(t *testing.T) {
	in := validInput()
	in.Name = strings.Repeat("a", 101)
	errs := in.Validate()
	if errs["name"] != "The Name Field must be at most 100 characters" {
		t.Errorf("errs = %v", errs)
	}
}

func TestSubmitInvalidNeverReachesSubmitter(t *testing.T) {
	sub := &recordingSubmitter{}
	in := validInput()
	in.Email = ""
	form := NewCommentForm(in)
	err := form.Submit(context.Background(), sub)
	if !errors.Is(err, ErrInvalidComment) {
		t.Fatalf("err = %v, want ErrInvalidComment", err)
	}
	if len(sub.calls) != 0 {
		t.Fatalf("submitter called %d times", len(sub.calls))
	}
	if form.State != FormUnsubmitted {
		t.Errorf("state = %v, want unsubmitted", form.State)
	}
	if form.Errors["email"] == "" {
		t.Error("expected an inline email error")
	}
}

func TestSubmitSuccessTransitions(t *testing.T) {
	sub := &recordingSubmitter{}
	in := validInput()
	in.Name = "  Ada  "
	form := NewCommentForm(in)
	if err := form.Submit(context.Background(), sub); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if form.State != FormSubmitted {
		t.Errorf("state = %v, want submitted", form.State)
	}
	if len(sub.calls) != 1 || sub.calls[0].Name != "Ada" {
		t.Errorf("calls = %+v", sub.calls)
	}
	if form.Input.Comment != "" || form.Input.PostID != "post-1" {
		t.Errorf("input after submit = %+v", form.Input)
	}
}

func TestSubmitFailureStaysUnsubmitted(t *testing.T) {
	sub := &recordingSubmitter{err: errors.New("boom")}
	form := NewCommentForm(validInput())
	err := form.Submit(context.Background(), sub)
	if err == nil {
		t.Fatal("expected error")
	}
	if form.State != FormUnsubmitted {
		t.Errorf("state = %v, want unsubmitted", form.State)
	}
	if form.SubmitError != SubmitFailedMessage {
		t.Errorf("SubmitError = %q", form.SubmitError)
	}
	if form.Input.Comment != "Nice post" {
		t.Error("typed values should be kept after a failure")
	}
}

func TestFormStateString(t *testing.T) {
	if FormUnsubmitted.String() != "unsubmitted" || FormSubmitted.String() != "submitted" {
		t.Error("unexpected state names")
	}
	if FormState(7).String() != "FormState(7)" {
		t.Errorf("got %q", FormState(7).String())
	}
}
