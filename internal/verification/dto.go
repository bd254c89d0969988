// AngelaMos | 2026
// dto.go

package verification

type SignupRequest struct {
	Email       string `json:"email"       validate:"required,email,max=255"`
	Password    string `json:"password"    validate:"required,min=8,max=128"`
	FullName    string `json:"full_name"   validate:"required,min=1,max=100"`
	Phone       string `json:"phone"       validate:"omitempty,max=32"`
	Institution string `json:"institution" validate:"omitempty,max=255"`
}

type ResendCodeRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Code  string `json:"code"  validate:"required,len=6,numeric"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type PasswordResetConfirmRequest struct {
	Email       string `json:"email"        validate:"required,email,max=255"`
	Code        string `json:"code"         validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

type StatusResponse struct {
	Message string `json:"message"`
}
