package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/arazmand/jarchi/app/dto"
	"github.com/arazmand/jarchi/app/services"
	"github.com/arazmand/jarchi/repository"
	testingutil "github.com/arazmand/jarchi/testing"
	"github.com/arazmand/jarchi/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoginFlowUnderTest(t *testing.T, db *testingutil.TestDB) LoginFlow {
	tokenService, err := services.NewTokenService(
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		"test-secret-key-for-jwt-signing-32-chars",
	)
	require.NoError(t, err)
	return NewLoginFlow(repository.NewStaffRepository(db.DB), tokenService)
}

func TestLoginFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	err := testingutil.TestWithDB(func(db *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(db)
		flow := newLoginFlowUnderTest(t, db)
		ctx := context.Background()
		metadata := NewClientMetadata("127.0.0.1", "test-agent")

		staff, err := fixtures.CreateTestStaff("operator")
		require.NoError(t, err)

		t.Run("successful login", func(t *testing.T) {
			resp, err := flow.Login(ctx, &dto.LoginRequest{
				Username: staff.Username,
				Password: "TestPass123!",
			}, metadata)

			require.NoError(t, err)
			assert.Equal(t, staff.ID, resp.Staff.ID)
			assert.Equal(t, staff.Username, resp.Staff.Username)
			assert.Equal(t, "operator", resp.Staff.Role)
			assert.NotEmpty(t, resp.AccessToken)
			assert.NotEmpty(t, resp.RefreshToken)
			assert.Equal(t, "Bearer", resp.TokenType)
			assert.Positive(t, resp.ExpiresIn)
		})

		t.Run("unknown username", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.LoginRequest{
				Username: "no_such_account",
				Password: "TestPass123!",
			}, metadata)

			require.Error(t, err)
			assert.True(t, IsStaffNotFound(err))
		})

		t.Run("wrong password", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.LoginRequest{
				Username: staff.Username,
				Password: "WrongPass123!",
			}, metadata)

			require.Error(t, err)
			assert.True(t, IsIncorrectPassword(err))
		})

		t.Run("inactive account", func(t *testing.T) {
			inactive, err := fixtures.CreateTestStaff("operator")
			require.NoError(t, err)
			inactive.IsActive = utils.ToPtr(false)
			require.NoError(t, db.DB.Save(inactive).Error)

			_, err = flow.Login(ctx, &dto.LoginRequest{
				Username: inactive.Username,
				Password: "TestPass123!",
			}, metadata)

			require.Error(t, err)
			assert.True(t, IsStaffInactive(err))
		})

		return nil
	})
	require.NoError(t, err)
}
