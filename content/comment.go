package content

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidComment is returned by Submit when the form has field errors.
var ErrInvalidComment = errors.New("comment has invalid fields")

// CommentInput is the payload of the comment form and of /api/createComment.
// PostID is the hidden "_id" field; it is never user-editable.
type CommentInput struct {
	PostID  string `json:"_id" form:"_id" validate:"required"`
	Name    string `json:"name" form:"name" validate:"required,max=100"`
	Email   string `json:"email" form:"email" validate:"required,max=254"`
	Comment string `json:"comment" form:"comment" validate:"required,max=5000"`
}

// Normalize trims surrounding whitespace so blank input counts as empty.
func (in *CommentInput) Normalize() {
	in.PostID = strings.TrimSpace(in.PostID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Comment = strings.TrimSpace(in.Comment)
}

// FieldErrors maps a form field name ("name", "email", ...) to its message.
type FieldErrors map[string]string

var fieldLabels = map[string]string{
	"_id":     "Post",
	"name":    "Name",
	"email":   "Email",
	"comment": "Comment",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks in and returns one message per failing field, or nil.
func (in CommentInput) Validate() FieldErrors {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_id": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return "The " + label + " Field is required"
	case "max":
		return "The " + label + " Field must be at most " + fe.Param() + " characters"
	default:
		return "The " + label + " Field is invalid (" + fe.Tag() + ")"
	}
}

// CommentSubmitter persists a validated comment.
type CommentSubmitter interface {
	SubmitComment(ctx context.Context, in CommentInput) error
}

// FormState is the state of the comment form on a post page.
type FormState int

const (
	FormUnsubmitted FormState = iota
	FormSubmitted
)

func (s FormState) String() string {
	switch s {
	case FormUnsubmitted:
		return "unsubmitted"
	case FormSubmitted:
		return "submitted"
	default:
		return "FormState(" + strconv.Itoa(int(s)) + ")"
	}
}

// SubmitFailedMessage is shown when the CMS rejects or never receives a comment.
const SubmitFailedMessage = "Sorry, your comment could not be submitted. Please try again."

// CommentForm is the comment form as rendered on a post page.
// It moves from FormUnsubmitted to FormSubmitted only through a successful
// Submit.
type CommentForm struct {
	State       FormState
	Input       CommentInput
	Errors      FieldErrors
	SubmitError string
}

// NewCommentForm returns an unsubmitted form holding the normalized input.
func NewCommentForm(in CommentInput) *CommentForm {
	in.Normalize()
	return &CommentForm{State: FormUnsubmitted, Input: in}
}

// Validate records field errors and reports whether the form may be sent.
func (f *CommentForm) Validate() bool {
	f.Errors = f.Input.Validate()
	return len(f.Errors) == 0
}

// Fail keeps the form unsubmitted and shows msg to the reader.
func (f *CommentForm) Fail(msg string) {
	f.State = FormUnsubmitted
	f.SubmitError = msg
}

// Submit validates the form and hands it to s. Invalid forms never reach s.
// On failure the form stays unsubmitted with SubmitError set; the returned
// error is for logging.
func (f *CommentForm) Submit(ctx context.Context, s CommentSubmitter) error {
	if !f.Validate() {
		return ErrInvalidComment
	}
	if err := s.SubmitComment(ctx, f.Input); err != nil {
		f.Fail(SubmitFailedMessage)
		return err
	}
	f.State = FormSubmitted
	f.SubmitError = ""
	f.Input = CommentInput{PostID: f.Input.PostID}
	return nil
}
