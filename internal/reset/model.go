package reset

type Step int

const (
	AwaitingEmail Step = iota
	AwaitingOTP
	AwaitingNewPassword
	Completed
)

func (s Step) String() string {
	switch s {
	case AwaitingEmail:
		return "awaiting_email"
	case AwaitingOTP:
		return "awaiting_otp"
	case AwaitingNewPassword:
		return "awaiting_new_password"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Session is a snapshot of one password reset attempt.
type Session struct {
	Step              Step
	Email             string
	OTP               string
	ContinuationToken string
	LastError         string
	InFlight          bool
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	OTP   string `json:"otp"`
	Token string `json:"token"`
}

type resetPasswordRequest struct {
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
	Token       string `json:"token"`
}
