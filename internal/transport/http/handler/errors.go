package handler

// User-facing messages. Token failures stay a bare not-found so the
// response never hints whether a token was malformed, unknown, or expired.
const (
	errInternalServer  = "Internal server error"
	errInvalidToken    = "Invalid Token"
	errSpamDetected    = "Spam detected."
	errInvalidInput    = "Invalid Input"
	errConsentRequired = "Please agree to the data storage."
	errDisposableEmail = "Please use a valid email address. Disposable email addresses are not allowed."
	errDuplicate       = "You have already requested this download in the last 24 hours. Please check your inbox."
	errMailSend        = "Error sending email."
)
