package proto

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// Field names used in request and response structs.
const (
	FieldEmail    = "email"
	FieldCode     = "code"
	FieldOutcome  = "outcome"
	FieldMessage  = "message"
	FieldNextStep = "next_step"
)

// Reply is the decoded form of every Subscriptions response.
type Reply struct {
	Outcome  string
	Message  string
	NextStep string
}

func NewEmailRequest(email string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldEmail: structpb.NewStringValue(email),
	}}
}

func NewVerifyRequest(email, code string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldEmail: structpb.NewStringValue(email),
		FieldCode:  structpb.NewStringValue(code),
	}}
}

// StringField returns the string value of key, or "" when it is absent or
// not a string.
func StringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func (r Reply) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldOutcome:  structpb.NewStringValue(r.Outcome),
		FieldMessage:  structpb.NewStringValue(r.Message),
		FieldNextStep: structpb.NewStringValue(r.NextStep),
	}}
}

func ReplyFromStruct(s *structpb.Struct) Reply {
	return Reply{
		Outcome:  StringField(s, FieldOutcome),
		Message:  StringField(s, FieldMessage),
		NextStep: StringField(s, FieldNextStep),
	}
}
