package businessflow

import (
	"context"

	"github.com/arazmand/jarchi/app/dto"
	"github.com/arazmand/jarchi/app/services"
	"github.com/arazmand/jarchi/repository"
	"github.com/arazmand/jarchi/utils"
)

// LoginFlow authenticates dashboard staff and issues session tokens
type LoginFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	staffRepo    repository.StaffRepository
	tokenService services.TokenService
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(staffRepo repository.StaffRepository, tokenService services.TokenService) LoginFlow {
	return &LoginFlowImpl{
		staffRepo:    staffRepo,
		tokenService: tokenService,
	}
}

// Login verifies credentials and returns an access/refresh token pair. The
// flow returns distinct internal errors; the handler collapses them into one
// generic unauthorized response so usernames cannot be probed.
func (f *LoginFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	staff, err := f.staffRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, NewBusinessError("STAFF_LOOKUP_FAILED", "Failed to lookup staff account", err)
	}
	if staff == nil {
		return nil, NewBusinessError("STAFF_NOT_FOUND", "Staff account not found", ErrStaffNotFound)
	}
	if !utils.IsTrue(staff.IsActive) {
		return nil, NewBusinessError("STAFF_INACTIVE", "Staff account is inactive", ErrStaffInactive)
	}
	if !staff.CheckPassword(req.Password) {
		return nil, NewBusinessError("INCORRECT_PASSWORD", "Incorrect password", ErrIncorrectPassword)
	}

	access, refresh, err := f.tokenService.GenerateTokens(staff.ID, staff.Role)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	return &dto.LoginResponse{
		Message:      "Login successful",
		Staff:        ToStaffDTO(staff),
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(utils.AccessTokenTTL.Seconds()),
	}, nil
}
