package services

// Outcome is the user-facing classification of a workflow call.
type Outcome string

const (
	OutcomePendingVerification Outcome = "PendingVerification"
	OutcomeAlreadyRegistered   Outcome = "AlreadyRegistered"
	OutcomeInvalidInput        Outcome = "InvalidInput"
	OutcomeDeliveryFailed      Outcome = "DeliveryFailed"
	OutcomeStoreUnavailable    Outcome = "StoreUnavailable"
	OutcomeVerified            Outcome = "Verified"
	OutcomeExpired             Outcome = "Expired"
	OutcomeInvalidAttempt      Outcome = "InvalidAttempt"
	OutcomeNotOnList           Outcome = "NotOnList"
	OutcomeAlreadyUnsubscribed Outcome = "AlreadyUnsubscribed"
	OutcomeUnsubscribed        Outcome = "Unsubscribed"
)

// Step tells the caller which form to show next.
type Step string

const (
	StepNone   Step = ""
	StepVerify Step = "verify"
	StepSignup Step = "signup"
)

// Operation names used for logging and metrics.
const (
	OpSignup      = "signup"
	OpVerify      = "verify"
	OpUnsubscribe = "unsubscribe"
)

const (
	MsgPendingVerification = "Check your email for the verification code."
	MsgAlreadyRegistered   = "This email is already registered."
	MsgEmailRequired       = "Email is required."
	MsgInvalidEmail        = "Invalid email address."
	MsgInvalidUnsubEmail   = "Please enter a valid email address."
	MsgEmailAndCode        = "Email and code are required."
	MsgDeliveryFailed      = "We couldn't send the verification email. Please try again later."
	MsgStoreUnavailable    = "Our system is busy. Please try again in a moment."
	MsgVerified            = "Email verified successfully!"
	MsgExpired             = "Verification code expired."
	MsgInvalidAttempt      = "Invalid verification code."
	MsgNotOnList           = "That email is not on our list."
	MsgAlreadyUnsubscribed = "You're already unsubscribed."
	MsgUnsubscribed        = "You're unsubscribed."
	MsgInvalidLink         = "This unsubscribe link is invalid or has expired."
)

// Result is what every workflow operation returns. Workflow operations never
// return an error; failures are outcomes.
type Result struct {
	Outcome  Outcome
	Message  string
	NextStep Step
}

func result(o Outcome, msg string, next Step) Result {
	return Result{Outcome: o, Message: msg, NextStep: next}
}

func invalidInput(msg string) Result { return result(OutcomeInvalidInput, msg, StepNone) }
func storeUnavailable() Result {
	return result(OutcomeStoreUnavailable, MsgStoreUnavailable, StepNone)
}
